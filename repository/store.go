package repository

import (
	"context"
	"time"

	"bounty-board-service/models"
)

// ListFilter narrows and pages a bounty listing. Zero-value fields are
// ignored; Page/PageSize are expected to be validated by the caller.
type ListFilter struct {
	BountyProvider string
	Status         string
	Page           int
	PageSize       int
}

// BountyStore is the durable home of Bounty aggregates. Every mutating method
// is a single conditional, atomic operation against one aggregate keyed by
// contract address: concurrent callers racing on the same bounty observe
// some total order, and a failed call leaves no partial effect.
type BountyStore interface {
	// CreateBounty inserts a new aggregate. ErrDuplicateContract on collision,
	// detected atomically at the insert.
	CreateBounty(ctx context.Context, b *models.Bounty) error

	// GetBounty loads one aggregate with its roster in join order.
	GetBounty(ctx context.Context, contractAddress string) (*models.Bounty, error)

	// ListBounties returns one page ordered by created_at descending, plus the
	// total match count.
	ListBounties(ctx context.Context, filter ListFilter) ([]models.Bounty, int64, error)

	// AddHunter appends a WORKING roster entry while the bounty is OPEN.
	// ErrIllegalState outside OPEN, ErrDuplicateHunter on a second join by the
	// same wallet, both enforced at the point of persistence.
	AddHunter(ctx context.Context, contractAddress string, entry *models.BountyHunterEntry) error

	// RecordSubmission flips exactly one WORKING entry to SUBMITTED, setting
	// pr_raised/pr_url/pr_raised_at together. Legal while the bounty is OPEN
	// or UNDER_REVIEW. ErrHunterNotFound / ErrAlreadySubmitted otherwise.
	RecordSubmission(ctx context.Context, contractAddress, walletAddress, prURL string, raisedAt time.Time) (*models.BountyHunterEntry, error)

	// TransitionStatus moves status from any of `from` to `to` as one guarded
	// update. ErrIllegalState when the current status is not in `from`.
	TransitionStatus(ctx context.Context, contractAddress string, from []string, to string) error

	// ResolveWinner sets the write-once winner and moves the bounty to
	// COMPLETED. Re-resolving with the same winner is a no-op success;
	// a different winner yields ErrWinnerConflict. The winner must hold a
	// SUBMITTED roster entry (ErrWinnerNotEligible).
	ResolveWinner(ctx context.Context, contractAddress, winnerWallet string) (*models.Bounty, error)

	// CloseExpired closes every OPEN bounty whose expiry is at or before
	// cutoff, returning how many were closed.
	CloseExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// TouchLastSynced records when the escrow sync job last looked at this
	// bounty. Metadata only, never guards or mutates lifecycle state.
	TouchLastSynced(ctx context.Context, contractAddress string, syncedAt time.Time) error
}
