package cart

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/itsriyaas/digitalcard-backend/pkg/errors"
)

// Identity names the cart owner: an authenticated user or an anonymous
// session, never both and never neither.
type Identity struct {
	UserID    *uuid.UUID
	SessionID *string
}

// UserIdentity builds an Identity for an authenticated buyer.
func UserIdentity(userID uuid.UUID) Identity {
	return Identity{UserID: &userID}
}

// SessionIdentity builds an Identity for an anonymous buyer.
func SessionIdentity(sessionID string) Identity {
	trimmed := strings.TrimSpace(sessionID)
	return Identity{SessionID: &trimmed}
}

// Validate enforces the exactly-one-owner rule.
func (i Identity) Validate() error {
	hasUser := i.UserID != nil && *i.UserID != uuid.Nil
	hasSession := i.SessionID != nil && strings.TrimSpace(*i.SessionID) != ""
	if hasUser == hasSession {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one of user or session must identify the cart")
	}
	return nil
}

// Scope narrows a cart query to this identity.
func (i Identity) Scope(q *gorm.DB) *gorm.DB {
	if i.UserID != nil && *i.UserID != uuid.Nil {
		return q.Where("user_id = ?", *i.UserID)
	}
	if i.SessionID != nil {
		return q.Where("session_id = ?", strings.TrimSpace(*i.SessionID))
	}
	return q
}
