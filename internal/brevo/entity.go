package brevo

const SmsTransactional = "transactional"

type Sms struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	Tag       string `json:"tag,omitempty"`
}

type WhatsAppMessage struct {
	SenderNumber   string            `json:"senderNumber"`
	ContactNumbers []string          `json:"contactNumbers"`
	TemplateId     int               `json:"templateId,omitempty"`
	Text           string            `json:"text,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
}
