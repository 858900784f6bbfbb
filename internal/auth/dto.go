package auth

import "github.com/itsriyaas/digitalcard-backend/pkg/db/models"

// RegisterInput carries the fields accepted when creating an account.
type RegisterInput struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
}

// LoginInput carries the credentials for an existing account.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult bundles the signed token with the authenticated user.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}
