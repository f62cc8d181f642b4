package brevo

import "fmt"

type SmsResponse struct {
	Reference        string  `json:"reference"`
	MessageId        int64   `json:"messageId"`
	SmsCount         int     `json:"smsCount"`
	UsedCredits      float64 `json:"usedCredits"`
	RemainingCredits float64 `json:"remainingCredits"`
}

type WhatsAppResponse struct {
	MessageId string `json:"messageId"`
}

// Error is the body Brevo returns with a non-2xx status.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("brevo %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("brevo %d: %s", e.StatusCode, e.Message)
}
