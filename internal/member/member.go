// Package member holds the account model and its persistence contracts.
package member

import "time"

type Member struct {
	ID          string
	Nickname    string
	Level       int
	Email       string
	Active      bool
	LastLoginAt *time.Time
	LastLoginIP string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SocialLink ties one provider identity to a member. The pair
// (Provider, ProviderIdentifier) is unique across the table.
type SocialLink struct {
	Provider           string
	ProviderIdentifier string
	MemberID           string
	DisplayName        string
	PhotoURL           string
	ProfileURL         string
}

// Credential stores a member's password hash for direct login.
type Credential struct {
	MemberID     string
	PasswordHash string
	HashVersion  string
}
