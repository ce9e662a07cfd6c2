package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"bounty-board-service/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process BountyStore with the same conditional-update
// contract as GormStore. It backs the test suite (including the concurrency
// tests) and local development without Postgres. One mutex serializes all
// mutations.
type MemoryStore struct {
	mu       sync.Mutex
	bounties map[string]*models.Bounty // keyed by contract address
	seq      int64                     // creation order tiebreaker
	order    map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bounties: make(map[string]*models.Bounty),
		order:    make(map[string]int64),
	}
}

func copyBounty(b *models.Bounty) *models.Bounty {
	cp := *b
	if b.Winner != nil {
		w := *b.Winner
		cp.Winner = &w
	}
	cp.Hunters = make([]models.BountyHunterEntry, len(b.Hunters))
	copy(cp.Hunters, b.Hunters)
	for i := range cp.Hunters {
		if src := b.Hunters[i].PRURL; src != nil {
			u := *src
			cp.Hunters[i].PRURL = &u
		}
		if src := b.Hunters[i].PRRaisedAt; src != nil {
			t := *src
			cp.Hunters[i].PRRaisedAt = &t
		}
	}
	return &cp
}

func (s *MemoryStore) CreateBounty(_ context.Context, b *models.Bounty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bounties[b.ContractAddress]; exists {
		return ErrDuplicateContract
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	s.seq++
	s.order[b.ContractAddress] = s.seq
	s.bounties[b.ContractAddress] = copyBounty(b)
	return nil
}

func (s *MemoryStore) GetBounty(_ context.Context, contractAddress string) (*models.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[contractAddress]
	if !ok {
		return nil, ErrBountyNotFound
	}
	return copyBounty(b), nil
}

func (s *MemoryStore) ListBounties(_ context.Context, filter ListFilter) ([]models.Bounty, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Bounty
	for _, b := range s.bounties {
		if filter.BountyProvider != "" && b.BountyProvider != filter.BountyProvider {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		matched = append(matched, b)
	}
	// newest first; insertion sequence breaks created_at ties
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return s.order[matched[i].ContractAddress] > s.order[matched[j].ContractAddress]
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return []models.Bounty{}, total, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]models.Bounty, 0, end-start)
	for _, b := range matched[start:end] {
		page = append(page, *copyBounty(b))
	}
	return page, total, nil
}

func (s *MemoryStore) AddHunter(_ context.Context, contractAddress string, entry *models.BountyHunterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[contractAddress]
	if !ok {
		return ErrBountyNotFound
	}
	if b.Status != models.BountyStatusOpen {
		return ErrIllegalState
	}

	wallet := models.NormalizeWallet(entry.WalletAddress)
	for i := range b.Hunters {
		if b.Hunters[i].WalletAddress == wallet {
			return ErrDuplicateHunter
		}
	}

	entry.ID = uuid.NewString()
	entry.BountyID = b.ID
	entry.WalletAddress = wallet
	entry.Status = models.HunterStatusWorking
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now()
	}
	b.Hunters = append(b.Hunters, *entry)
	b.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) RecordSubmission(_ context.Context, contractAddress, walletAddress, prURL string, raisedAt time.Time) (*models.BountyHunterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[contractAddress]
	if !ok {
		return nil, ErrBountyNotFound
	}
	if models.IsTerminalStatus(b.Status) {
		return nil, ErrIllegalState
	}

	wallet := models.NormalizeWallet(walletAddress)
	for i := range b.Hunters {
		if b.Hunters[i].WalletAddress != wallet {
			continue
		}
		if b.Hunters[i].Status != models.HunterStatusWorking {
			return nil, ErrAlreadySubmitted
		}
		url := prURL
		at := raisedAt
		b.Hunters[i].Status = models.HunterStatusSubmitted
		b.Hunters[i].PRRaised = true
		b.Hunters[i].PRURL = &url
		b.Hunters[i].PRRaisedAt = &at
		b.UpdatedAt = time.Now()
		updated := b.Hunters[i]
		return &updated, nil
	}
	return nil, ErrHunterNotFound
}

func (s *MemoryStore) TransitionStatus(_ context.Context, contractAddress string, from []string, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[contractAddress]
	if !ok {
		return ErrBountyNotFound
	}
	for _, f := range from {
		if b.Status == f && models.CanTransition(f, to) {
			b.Status = to
			b.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrIllegalState
}

func (s *MemoryStore) ResolveWinner(_ context.Context, contractAddress, winnerWallet string) (*models.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[contractAddress]
	if !ok {
		return nil, ErrBountyNotFound
	}

	winner := models.NormalizeWallet(winnerWallet)
	if b.Winner != nil {
		if *b.Winner == winner {
			return copyBounty(b), nil
		}
		return nil, ErrWinnerConflict
	}
	if models.IsTerminalStatus(b.Status) {
		return nil, ErrIllegalState
	}

	eligible := false
	for i := range b.Hunters {
		if b.Hunters[i].WalletAddress == winner && b.Hunters[i].Status == models.HunterStatusSubmitted {
			eligible = true
			break
		}
	}
	if !eligible {
		return nil, ErrWinnerNotEligible
	}

	b.Winner = &winner
	b.Status = models.BountyStatusCompleted
	b.UpdatedAt = time.Now()
	return copyBounty(b), nil
}

func (s *MemoryStore) CloseExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var closed int64
	for _, b := range s.bounties {
		if b.Status == models.BountyStatusOpen && !b.ExpiresAt.After(cutoff) {
			b.Status = models.BountyStatusClosed
			b.UpdatedAt = time.Now()
			closed++
		}
	}
	return closed, nil
}

func (s *MemoryStore) TouchLastSynced(_ context.Context, contractAddress string, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bounties[contractAddress]
	if !ok {
		return ErrBountyNotFound
	}
	b.LastSyncedAt = syncedAt
	return nil
}
