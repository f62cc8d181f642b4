package entity

// Delivery flags are always false in the response: channels run after it is sent.
type Delivery struct {
	EmailSent    bool `json:"emailSent"`
	SmsSent      bool `json:"smsSent"`
	WhatsAppSent bool `json:"whatsappSent"`
}

type Registration struct {
	Success    bool     `json:"success"`
	TicketCode string   `json:"ticketCode"`
	Message    string   `json:"message"`
	Delivery   Delivery `json:"delivery"`
}
