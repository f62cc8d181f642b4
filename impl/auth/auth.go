package auth

import (
	"crypto/subtle"
	"errors"
	"ticketdesk/entity"
)

var ErrUnauthorized = errors.New("unauthorized")

// Auth resolves bearer tokens of the configured operators.
type Auth struct {
	operators []entity.Operator
}

func New(operators []entity.Operator) *Auth {
	return &Auth{operators: operators}
}

// OperatorByToken compares every configured token in constant time.
func (a *Auth) OperatorByToken(token string) (*entity.Operator, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	var found *entity.Operator
	for i := range a.operators {
		if subtle.ConstantTimeCompare([]byte(a.operators[i].Token), []byte(token)) == 1 {
			found = &a.operators[i]
		}
	}
	if found == nil {
		return nil, ErrUnauthorized
	}
	operator := *found
	return &operator, nil
}
