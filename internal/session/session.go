package session

import "time"

// Session is the persistent record of an authenticated browser.
// Only the digest of the session identifier is ever stored; the raw
// identifier lives exclusively in the browser cookie.
type Session struct {
	IDHash       string
	MemberID     string
	CSRFToken    string
	IP           string
	UserAgent    string
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time
}

// Metadata carries request attribution recorded at session creation.
type Metadata struct {
	IP        string
	UserAgent string
}

// Created is returned once from Create; the raw session identifier is
// never recoverable afterwards.
type Created struct {
	SessionID string
	CSRFToken string
	ExpiresAt time.Time
}
