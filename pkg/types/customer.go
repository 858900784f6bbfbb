package types

import "strings"

// Customer is the buyer contact snapshot stored on an order.
type Customer struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// Validate reports the first missing required field, if any.
func (c Customer) Validate() string {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return "name"
	case strings.TrimSpace(c.Email) == "":
		return "email"
	}
	return ""
}
