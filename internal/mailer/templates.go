package mailer

import (
	"bytes"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<html>
  <head><meta http-equiv="Content-Type" content="text/html; charset=UTF-8"></head>
  <body style="font-family: sans-serif;">
    <div style="display: block; margin: auto; max-width: 600px;">
      <h1 style="font-size: 18px; font-weight: bold; margin-top: 20px">{{.Heading}}</h1>
      <p>Please use the OTP code below to verify your account.</p>
      <p style="text-align:center;background-color:yellow;font-weight:bold;font-size:24px;">{{.Code}}</p>
      <p>The code expires in {{.Minutes}} minutes.</p>
    </div>
  </body>
</html>`))

// OTPPurpose selects the wording of an OTP email.
type OTPPurpose int

const (
	OTPRegistration OTPPurpose = iota
	OTPRegenerated
)

// OTPMessage renders the verification email for username.
func OTPMessage(purpose OTPPurpose, to, username, code string, ttl time.Duration) (Message, error) {
	subject := "Register success"
	heading := "Congrats " + username + ", you have been registered"
	if purpose == OTPRegenerated {
		subject = "Generate OTP Code"
		heading = "Congrats " + username + ", here is your new OTP code"
	}

	var body bytes.Buffer
	err := otpTemplate.Execute(&body, struct {
		Heading string
		Code    string
		Minutes int
	}{heading, code, int(ttl / time.Minute)})
	if err != nil {
		return Message{}, err
	}

	return Message{To: to, Subject: subject, HTMLBody: body.String()}, nil
}
