package models

import (
	"strings"
	"time"
)

// Bounty lifecycle statuses
const (
	BountyStatusOpen        = "OPEN"
	BountyStatusUnderReview = "UNDER_REVIEW"
	BountyStatusCompleted   = "COMPLETED"
	BountyStatusClosed      = "CLOSED"
	BountyStatusCancelled   = "CANCELLED"
)

// Hunter entry statuses. Monotonic: WORKING may only move to SUBMITTED.
const (
	HunterStatusWorking   = "WORKING"
	HunterStatusSubmitted = "SUBMITTED"
)

// Bounty is the aggregate root for one escrow-backed task.
// Core terms (contract address, provider, amount, interval) are immutable
// after creation; status/winner/roster only change through the service layer.
type Bounty struct {
	ID               string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ContractAddress  string  `json:"contract_address" gorm:"uniqueIndex;not null"` // join key to the escrow contract
	BountyProvider   string  `json:"bounty_provider" gorm:"index;not null"`        // creator wallet
	BountyAmount     float64 `json:"bounty_amount" gorm:"not null"`
	TimeInterval     int64   `json:"time_interval" gorm:"not null"` // seconds, used to derive expires_at on chain
	InitialTimestamp int64   `json:"initial_timestamp" gorm:"not null"`

	Status string  `json:"status" gorm:"type:varchar(16);default:'OPEN';index"`
	Winner *string `json:"bounty_winner"` // write-once, normalized 0x address

	IssueURL    string `json:"issue_url" gorm:"not null"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"index"`
	Description string `json:"description"`

	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
	LastSyncedAt time.Time `json:"last_synced_at"`

	// Relationships
	Hunters []BountyHunterEntry `json:"bounty_hunters" gorm:"foreignKey:BountyID"`
}

// BountyHunterEntry is owned by its parent Bounty. One row per wallet per
// bounty, enforced by the composite unique index.
type BountyHunterEntry struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BountyID      string     `json:"bounty_id" gorm:"not null;index;uniqueIndex:idx_bounty_hunter_wallet"`
	Email         string     `json:"email" gorm:"not null"`
	WalletAddress string     `json:"wallet_address" gorm:"not null;uniqueIndex:idx_bounty_hunter_wallet"`
	JoinedAt      time.Time  `json:"joined_at" gorm:"autoCreateTime"`
	PRRaised      bool       `json:"pr_raised" gorm:"default:false"`
	PRURL         *string    `json:"pr_url"`
	PRRaisedAt    *time.Time `json:"pr_raised_at"`
	Status        string     `json:"status" gorm:"type:varchar(16);default:'WORKING'"`
}

// legal status transitions; terminal states map to nothing
var bountyTransitions = map[string][]string{
	BountyStatusOpen:        {BountyStatusUnderReview, BountyStatusCompleted, BountyStatusClosed, BountyStatusCancelled},
	BountyStatusUnderReview: {BountyStatusCompleted, BountyStatusClosed, BountyStatusCancelled},
}

// CanTransition reports whether a bounty may legally move between the two
// statuses.
func CanTransition(from, to string) bool {
	for _, next := range bountyTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further writes are accepted.
func IsTerminalStatus(status string) bool {
	switch status {
	case BountyStatusCompleted, BountyStatusClosed, BountyStatusCancelled:
		return true
	}
	return false
}

// ValidBountyStatus reports whether s is one of the known lifecycle statuses.
func ValidBountyStatus(s string) bool {
	switch s {
	case BountyStatusOpen, BountyStatusUnderReview, BountyStatusCompleted,
		BountyStatusClosed, BountyStatusCancelled:
		return true
	}
	return false
}

// NormalizeWallet lower-cases a wallet address and guarantees the 0x prefix.
// All roster wallets and the resolved winner are stored in this form.
func NormalizeWallet(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return addr
	}
	if !strings.HasPrefix(addr, "0x") {
		addr = "0x" + addr
	}
	return addr
}

// HunterByWallet returns the roster entry for a (normalized) wallet, or nil.
func (b *Bounty) HunterByWallet(wallet string) *BountyHunterEntry {
	wallet = NormalizeWallet(wallet)
	for i := range b.Hunters {
		if b.Hunters[i].WalletAddress == wallet {
			return &b.Hunters[i]
		}
	}
	return nil
}
