package entity

import (
	"net/http"
	"strings"
	"ticketdesk/lib/validate"
)

type RegisterRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,max=40"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

// Bind only cleans the input; the registration workflow decides which error the caller sees.
func (r *RegisterRequest) Bind(_ *http.Request) error {
	r.Normalize()
	return nil
}

// Normalize trims the input in place; email is also lower-cased since it is the dedup key.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterRequest) Validate() error {
	r.Normalize()
	return validate.Struct(r)
}
