package notifxconsole

import (
	"context"
	"strings"
	"sync"

	"github.com/hypeframe/monarch/pkg/logx"
	"github.com/hypeframe/monarch/pkg/notifx"
)

// outboxSize limita cuántos mensajes recientes se guardan.
const outboxSize = 100

// ConsoleProvider loguea los emails en vez de enviarlos (NOTIFX_PROVIDER=console).
// Guarda los últimos mensajes para que desarrollo y tests puedan leer los códigos.
type ConsoleProvider struct {
	mu     sync.Mutex
	outbox []notifx.EmailMessage
}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the message and appends it to the outbox.
func (p *ConsoleProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sendOpts := notifx.ApplySendOptions(opts)

	logx.WithContext(ctx).WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
		"tags":    sendOpts.Tags,
	}).Info("notifx/console: email captured")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.outbox = append(p.outbox, msg)
	if len(p.outbox) > outboxSize {
		p.outbox = p.outbox[len(p.outbox)-outboxSize:]
	}
	return nil
}

// LastTo devuelve el último mensaje enviado a la dirección dada.
func (p *ConsoleProvider) LastTo(address string) (notifx.EmailMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.outbox) - 1; i >= 0; i-- {
		for _, to := range p.outbox[i].To {
			if strings.EqualFold(to, address) {
				return p.outbox[i], true
			}
		}
	}
	return notifx.EmailMessage{}, false
}

// Sent devuelve una copia del outbox.
func (p *ConsoleProvider) Sent() []notifx.EmailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifx.EmailMessage(nil), p.outbox...)
}
