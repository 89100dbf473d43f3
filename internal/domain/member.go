package domain

import "time"

// Member represents a process-wide user identity. Identity fields are
// immutable after creation; only the display name may change.
type Member struct {
	ID            string
	DisplayName   string
	WalletAddress *string
	CreatedAt     time.Time
}
