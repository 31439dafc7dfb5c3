package notifx

import (
	"net/http"

	"github.com/hypeframe/monarch/pkg/errx"
)

var notifxErrors = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed       = notifxErrors.Register("SEND_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Failed to send email")
	ErrInvalidMessage   = notifxErrors.Register("INVALID_MESSAGE", errx.TypeValidation, http.StatusBadRequest, "Invalid email message")
	ErrTemplateNotFound = notifxErrors.Register("TEMPLATE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Email template not found")
	ErrTemplateParse    = notifxErrors.Register("TEMPLATE_PARSE", errx.TypeValidation, http.StatusBadRequest, "Failed to parse email template")
	ErrTemplateRender   = notifxErrors.Register("TEMPLATE_RENDER", errx.TypeInternal, http.StatusInternalServerError, "Failed to render email template")
	ErrUnknownProvider  = notifxErrors.Register("UNKNOWN_PROVIDER", errx.TypeValidation, http.StatusBadRequest, "Unknown email provider")
)

// UnknownProviderError reports an unsupported NOTIFX_PROVIDER value.
func UnknownProviderError(name string) *errx.Error {
	return notifxErrors.New(ErrUnknownProvider).WithDetail("provider", name)
}
