package entity

import "fmt"

const TicketPrefix = "ROS-"

// TicketCode formats a claimed ticket number as ROS-0007; wider numbers are kept as is.
func TicketCode(number int) string {
	return fmt.Sprintf("%s%04d", TicketPrefix, number)
}

type TicketsLeft struct {
	Left  int `json:"left"`
	Total int `json:"total"`
}

// Summary is the operator view of the current registration state.
type Summary struct {
	Registrants int64 `json:"registrants"`
	Left        int   `json:"left"`
	Total       int   `json:"total"`
}
