package entity

// Operator is an API user allowed to call administrative endpoints.
type Operator struct {
	Username string `json:"username" yaml:"username" validate:"required"`
	Token    string `json:"-" yaml:"token" validate:"required,min=16"`
}
