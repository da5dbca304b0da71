package model

// Caller is the authenticated identity the access layer hands to use cases.
type Caller struct {
	UserID         string
	OrganizationID string
	IsOrgOwner     bool
}

func (c Caller) IsZero() bool { return c.UserID == "" }
