package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"text/template"
)

//go:embed templates
var templateFS embed.FS

var (
	emailTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/email.html"))
	smsTemplate   = template.Must(template.ParseFS(templateFS, "templates/sms.txt"))
)

type emailData struct {
	*Message
	ImageName string
}

func renderEmail(msg *Message, imageName string) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, emailData{Message: msg, ImageName: imageName}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderText(msg *Message) (string, error) {
	var buf bytes.Buffer
	if err := smsTemplate.Execute(&buf, msg); err != nil {
		return "", err
	}
	return buf.String(), nil
}
