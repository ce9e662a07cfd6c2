package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"bounty-board-service/models"
	"bounty-board-service/repository"

	"github.com/gosimple/slug"
)

// StatsRecorder rolls denormalized hunter/provider counters forward after a
// lifecycle event commits. Best-effort: failures are logged, never surfaced.
type StatsRecorder interface {
	RecordListing(ctx context.Context, providerWallet string)
	RecordParticipation(ctx context.Context, hunterWallet string)
	RecordSubmission(ctx context.Context, hunterWallet string)
	RecordWin(ctx context.Context, winnerWallet, providerWallet string, amount float64)
}

// BountyService is the bounty lifecycle core: validation, the status state
// machine, and the hunter roster rules. All contention is pushed into the
// store's conditional updates, so two racing calls on the same bounty commit
// in some total order and the loser gets a typed error.
type BountyService struct {
	Store repository.BountyStore
	Stats StatsRecorder // optional
}

func NewBountyService(store repository.BountyStore, stats StatsRecorder) *BountyService {
	return &BountyService{Store: store, Stats: stats}
}

type CreateBountyInput struct {
	ContractAddress  string    `json:"contract_address"`
	BountyProvider   string    `json:"bounty_provider"`
	BountyAmount     float64   `json:"bounty_amount"`
	TimeInterval     int64     `json:"time_interval"`
	InitialTimestamp int64     `json:"initial_timestamp"`
	IssueURL         string    `json:"issue_url"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ExpiresAt        time.Time `json:"expires_at"`
}

type JoinBountyInput struct {
	Email         string `json:"email"`
	WalletAddress string `json:"wallet_address"`
}

type SubmitWorkInput struct {
	WalletAddress string `json:"wallet_address"`
	PRURL         string `json:"pr_url"`
}

type ListBountiesInput struct {
	BountyProvider string
	Status         string
	Page           int
	PageSize       int
}

// BountyPage is one listing page plus its metadata.
type BountyPage struct {
	Items       []models.Bounty `json:"items"`
	CurrentPage int             `json:"current_page"`
	TotalPages  int             `json:"total_pages"`
	TotalCount  int64           `json:"total_count"`
	HasNextPage bool            `json:"has_next_page"`
	HasPrevPage bool            `json:"has_prev_page"`
}

func validateCreateBounty(in CreateBountyInput, now time.Time) error {
	if in.ContractAddress == "" {
		return ErrInvalidInput("contract_address is required")
	}
	if in.BountyProvider == "" {
		return ErrInvalidInput("bounty_provider is required")
	}
	if in.Title == "" {
		return ErrInvalidInput("title is required")
	}
	if in.BountyAmount <= 0 {
		return ErrInvalidInput("bounty_amount must be greater than 0")
	}
	if in.TimeInterval <= 0 {
		return ErrInvalidInput("time_interval must be greater than 0")
	}
	if in.InitialTimestamp <= 0 {
		return ErrInvalidInput("initial_timestamp is required")
	}
	if in.IssueURL == "" {
		return ErrInvalidInput("issue_url is required")
	}
	if u, err := url.Parse(in.IssueURL); err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidInput("issue_url must be an absolute URL")
	}
	if in.ExpiresAt.IsZero() {
		return ErrInvalidInput("expires_at is required")
	}
	if !in.ExpiresAt.After(now) {
		return ErrInvalidInput("expires_at must be in the future")
	}
	return nil
}

// CreateBounty allocates a new OPEN bounty with an empty roster and no
// winner. Duplicate contract addresses lose at the insert itself.
func (s *BountyService) CreateBounty(ctx context.Context, in CreateBountyInput) (*models.Bounty, error) {
	now := time.Now()
	if err := validateCreateBounty(in, now); err != nil {
		return nil, err
	}

	bounty := &models.Bounty{
		ContractAddress:  in.ContractAddress,
		BountyProvider:   in.BountyProvider,
		BountyAmount:     in.BountyAmount,
		TimeInterval:     in.TimeInterval,
		InitialTimestamp: in.InitialTimestamp,
		Status:           models.BountyStatusOpen,
		IssueURL:         in.IssueURL,
		Title:            in.Title,
		Slug:             slug.Make(in.Title),
		Description:      in.Description,
		ExpiresAt:        in.ExpiresAt,
		LastSyncedAt:     now,
		Hunters:          []models.BountyHunterEntry{},
	}

	if err := s.Store.CreateBounty(ctx, bounty); err != nil {
		return nil, mapStoreError(err)
	}
	s.recordStats(func(r StatsRecorder) { r.RecordListing(ctx, in.BountyProvider) })
	return bounty, nil
}

// JoinBounty appends a WORKING roster entry while the bounty is OPEN. A
// wallet may join a given bounty at most once; the store enforces that at
// the point of persistence.
func (s *BountyService) JoinBounty(ctx context.Context, contractAddress string, in JoinBountyInput) (*models.BountyHunterEntry, error) {
	if contractAddress == "" {
		return nil, ErrInvalidInput("contract_address is required")
	}
	if in.Email == "" {
		return nil, ErrInvalidInput("email is required")
	}
	if in.WalletAddress == "" {
		return nil, ErrInvalidInput("wallet_address is required")
	}

	entry := &models.BountyHunterEntry{
		Email:         in.Email,
		WalletAddress: models.NormalizeWallet(in.WalletAddress),
		Status:        models.HunterStatusWorking,
	}
	if err := s.Store.AddHunter(ctx, contractAddress, entry); err != nil {
		return nil, mapStoreError(err)
	}
	s.recordStats(func(r StatsRecorder) { r.RecordParticipation(ctx, entry.WalletAddress) })
	return entry, nil
}

// SubmitWork records a hunter's submission: exactly one WORKING entry moves
// to SUBMITTED with pr_raised/pr_url/pr_raised_at set together. No
// resubmission, no effect on other entries.
func (s *BountyService) SubmitWork(ctx context.Context, contractAddress string, in SubmitWorkInput) (*models.BountyHunterEntry, error) {
	if contractAddress == "" {
		return nil, ErrInvalidInput("contract_address is required")
	}
	if in.WalletAddress == "" {
		return nil, ErrInvalidInput("wallet_address is required")
	}
	if in.PRURL == "" {
		return nil, ErrInvalidInput("pr_url is required")
	}
	if u, err := url.Parse(in.PRURL); err != nil || !u.IsAbs() || u.Host == "" {
		return nil, ErrInvalidInput("pr_url must be an absolute URL")
	}

	entry, err := s.Store.RecordSubmission(ctx, contractAddress, in.WalletAddress, in.PRURL, time.Now())
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.recordStats(func(r StatsRecorder) { r.RecordSubmission(ctx, entry.WalletAddress) })
	return entry, nil
}

// AdvanceToUnderReview moves an OPEN bounty into review.
func (s *BountyService) AdvanceToUnderReview(ctx context.Context, contractAddress string) error {
	err := s.Store.TransitionStatus(ctx, contractAddress,
		[]string{models.BountyStatusOpen}, models.BountyStatusUnderReview)
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

// ResolveWinner designates the winning hunter and completes the bounty.
// Idempotent for the same winner; a different winner on a resolved bounty is
// a conflict. The winner must hold a SUBMITTED roster entry.
func (s *BountyService) ResolveWinner(ctx context.Context, contractAddress, winnerWallet string) (*models.Bounty, error) {
	if contractAddress == "" {
		return nil, ErrInvalidInput("contract_address is required")
	}
	if winnerWallet == "" {
		return nil, ErrInvalidInput("winner_wallet is required")
	}

	bounty, err := s.Store.ResolveWinner(ctx, contractAddress, winnerWallet)
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.recordStats(func(r StatsRecorder) {
		r.RecordWin(ctx, models.NormalizeWallet(winnerWallet), bounty.BountyProvider, bounty.BountyAmount)
	})
	return bounty, nil
}

// CloseBounty terminates an unresolved bounty (expiry path).
func (s *BountyService) CloseBounty(ctx context.Context, contractAddress string) error {
	err := s.Store.TransitionStatus(ctx, contractAddress,
		[]string{models.BountyStatusOpen, models.BountyStatusUnderReview}, models.BountyStatusClosed)
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

// CancelBounty terminates a bounty on the provider's initiative.
func (s *BountyService) CancelBounty(ctx context.Context, contractAddress string) error {
	err := s.Store.TransitionStatus(ctx, contractAddress,
		[]string{models.BountyStatusOpen, models.BountyStatusUnderReview}, models.BountyStatusCancelled)
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

// GetByContractAddress loads one bounty with its full roster.
func (s *BountyService) GetByContractAddress(ctx context.Context, contractAddress string) (*models.Bounty, error) {
	if contractAddress == "" {
		return nil, ErrInvalidInput("contract_address is required")
	}
	bounty, err := s.Store.GetBounty(ctx, contractAddress)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return bounty, nil
}

// ListBounties pages bounties newest-first, optionally filtered by provider
// and status.
func (s *BountyService) ListBounties(ctx context.Context, in ListBountiesInput) (*BountyPage, error) {
	if in.Page <= 0 {
		return nil, ErrInvalidInput("page must be a positive integer")
	}
	if in.PageSize <= 0 {
		return nil, ErrInvalidInput("page_size must be a positive integer")
	}
	if in.Status != "" && !models.ValidBountyStatus(in.Status) {
		return nil, ErrInvalidInput(fmt.Sprintf("unknown status %q", in.Status))
	}

	items, total, err := s.Store.ListBounties(ctx, repository.ListFilter{
		BountyProvider: in.BountyProvider,
		Status:         in.Status,
		Page:           in.Page,
		PageSize:       in.PageSize,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	totalPages := int((total + int64(in.PageSize) - 1) / int64(in.PageSize))
	return &BountyPage{
		Items:       items,
		CurrentPage: in.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNextPage: in.Page < totalPages,
		HasPrevPage: in.Page > 1 && totalPages > 0,
	}, nil
}

// GetWinner returns the normalized winner address, or nil while unresolved.
func (s *BountyService) GetWinner(ctx context.Context, contractAddress string) (*string, error) {
	bounty, err := s.GetByContractAddress(ctx, contractAddress)
	if err != nil {
		return nil, err
	}
	if bounty.Winner == nil {
		return nil, nil
	}
	normalized := models.NormalizeWallet(*bounty.Winner)
	return &normalized, nil
}

func (s *BountyService) recordStats(fn func(StatsRecorder)) {
	if s.Stats == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Stats] recorder panicked: %v", r)
		}
	}()
	fn(s.Stats)
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrBountyNotFound):
		return ErrNotFound("bounty not found")
	case errors.Is(err, repository.ErrDuplicateContract):
		return ErrConflict("bounty with this contract address already exists")
	case errors.Is(err, repository.ErrDuplicateHunter):
		return ErrConflict("wallet already joined this bounty")
	case errors.Is(err, repository.ErrHunterNotFound):
		return ErrNotFound("no roster entry for wallet on this bounty")
	case errors.Is(err, repository.ErrAlreadySubmitted):
		return ErrInvalidTransition("hunter has already submitted for this bounty")
	case errors.Is(err, repository.ErrIllegalState):
		return ErrInvalidTransition("operation not allowed in current bounty status")
	case errors.Is(err, repository.ErrWinnerConflict):
		return ErrConflict("bounty already resolved with a different winner")
	case errors.Is(err, repository.ErrWinnerNotEligible):
		return ErrConflict("winner has no submitted entry on this bounty")
	default:
		return ErrUnavailable("storage error: " + err.Error())
	}
}
