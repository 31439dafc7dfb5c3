package notifxconsole

import (
	"context"
	"fmt"
	"testing"

	"github.com/hypeframe/monarch/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleProvider_Outbox(t *testing.T) {
	p := NewConsoleProvider()
	ctx := context.Background()

	require.NoError(t, p.SendEmail(ctx, notifx.EmailMessage{To: []string{"a@x.io"}, Subject: "first"}))
	require.NoError(t, p.SendEmail(ctx, notifx.EmailMessage{To: []string{"A@X.io"}, Subject: "second"}, notifx.WithTags(map[string]string{"k": "v"})))

	msg, ok := p.LastTo("a@x.io")
	require.True(t, ok)
	assert.Equal(t, "second", msg.Subject)

	_, ok = p.LastTo("nobody@x.io")
	assert.False(t, ok)
}

func TestConsoleProvider_OutboxIsBounded(t *testing.T) {
	p := NewConsoleProvider()
	for i := 0; i < outboxSize+10; i++ {
		require.NoError(t, p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@x.io"}, Subject: fmt.Sprint(i)}))
	}
	sent := p.Sent()
	assert.Len(t, sent, outboxSize)
	assert.Equal(t, fmt.Sprint(outboxSize+9), sent[len(sent)-1].Subject)
}

func TestConsoleProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewConsoleProvider().SendEmail(ctx, notifx.EmailMessage{To: []string{"a@x.io"}}))
}
