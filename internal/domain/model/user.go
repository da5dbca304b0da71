package model

import (
	"net/mail"
	"strings"
	"time"

	"voice-analytics/internal/domain"

	"github.com/google/uuid"
)

// User is an account that can submit and review calls.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	IsOrgOwner     bool      `json:"is_org_owner"`
	OrganizationID string    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewUser(id, name, email, passwordHash string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if name == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// Caller projects the user onto the identity used for authorization.
func (u *User) Caller() Caller {
	return Caller{UserID: u.ID, OrganizationID: u.OrganizationID, IsOrgOwner: u.IsOrgOwner}
}

// OwnsOrganization reports whether u is the owner of orgID.
func (u *User) OwnsOrganization(orgID string) bool {
	return u.IsOrgOwner && orgID != "" && u.OrganizationID == orgID
}

// NormalizeEmail validates a bare address and lower-cases it.
func NormalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil || addr.Name != "" {
		return "", domain.ErrInvalidArgument
	}
	return strings.ToLower(addr.Address), nil
}
