package entity

// Event holds the details printed in every confirmation message.
type Event struct {
	Name      string `json:"name"`
	Organizer string `json:"organizer"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Location  string `json:"location"`
	MapUrl    string `json:"map_url"`
}
