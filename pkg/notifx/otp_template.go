package notifx

import "fmt"

// TemplateOTPCode es el template HTML del email con el código de verificación.
const TemplateOTPCode = "otp_code"

const otpCodeHTML = `<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif;">
    <p>Your verification code is:</p>
    <p style="font-size: 28px; letter-spacing: 6px;"><strong>{{.Code}}</strong></p>
    <p>It expires in {{.ExpiresInMinutes}} minutes. If you did not request it, ignore this email.</p>
  </body>
</html>`

// OTPCodeData alimenta TemplateOTPCode.
type OTPCodeData struct {
	Code             string
	ExpiresInMinutes int
}

// OTPCodeMessage arma el mensaje base (texto plano incluido) para un código OTP.
func OTPCodeMessage(to string, data OTPCodeData) EmailMessage {
	return EmailMessage{
		To:       []string{to},
		Subject:  "Your verification code",
		TextBody: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", data.Code, data.ExpiresInMinutes),
	}
}

func (c *Client) registerBuiltins() {
	// template estático; solo falla si el HTML no parsea
	if err := c.templates.Register(TemplateOTPCode, otpCodeHTML); err != nil {
		panic(err)
	}
}
