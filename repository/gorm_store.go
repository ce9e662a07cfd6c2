package repository

import (
	"context"
	"errors"
	"time"

	"bounty-board-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed BountyStore. Uniqueness lives in the
// schema (unique indexes on contract_address and (bounty_id, wallet_address));
// lifecycle races are settled with row locks and status-guarded updates, so
// losers of a race get a typed error instead of clobbering the winner.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) CreateBounty(ctx context.Context, b *models.Bounty) error {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}},
			DoNothing: true,
		}).
		Create(b)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateContract
	}
	return nil
}

func (s *GormStore) GetBounty(ctx context.Context, contractAddress string) (*models.Bounty, error) {
	var b models.Bounty
	err := s.DB.WithContext(ctx).
		Preload("Hunters", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		First(&b, "contract_address = ?", contractAddress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBountyNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *GormStore) ListBounties(ctx context.Context, filter ListFilter) ([]models.Bounty, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Bounty{})
	if filter.BountyProvider != "" {
		q = q.Where("bounty_provider = ?", filter.BountyProvider)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bounties []models.Bounty
	err := q.
		Preload("Hunters", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&bounties).Error
	if err != nil {
		return nil, 0, err
	}
	return bounties, total, nil
}

func (s *GormStore) AddHunter(ctx context.Context, contractAddress string, entry *models.BountyHunterEntry) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Bounty
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, "contract_address = ?", contractAddress).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBountyNotFound
			}
			return err
		}
		if b.Status != models.BountyStatusOpen {
			return ErrIllegalState
		}

		entry.BountyID = b.ID
		entry.WalletAddress = models.NormalizeWallet(entry.WalletAddress)
		entry.Status = models.HunterStatusWorking

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bounty_id"}, {Name: "wallet_address"}},
			DoNothing: true,
		}).Create(entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateHunter
		}
		return nil
	})
}

func (s *GormStore) RecordSubmission(ctx context.Context, contractAddress, walletAddress, prURL string, raisedAt time.Time) (*models.BountyHunterEntry, error) {
	wallet := models.NormalizeWallet(walletAddress)

	var updated models.BountyHunterEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Bounty
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, "contract_address = ?", contractAddress).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBountyNotFound
			}
			return err
		}
		if models.IsTerminalStatus(b.Status) {
			return ErrIllegalState
		}

		// pr_raised, pr_url, pr_raised_at and status move together; a WORKING
		// entry with pr_raised=true is unrepresentable.
		res := tx.Model(&models.BountyHunterEntry{}).
			Where("bounty_id = ? AND wallet_address = ? AND status = ?", b.ID, wallet, models.HunterStatusWorking).
			Updates(map[string]any{
				"status":       models.HunterStatusSubmitted,
				"pr_raised":    true,
				"pr_url":       prURL,
				"pr_raised_at": raisedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing models.BountyHunterEntry
			err := tx.First(&existing, "bounty_id = ? AND wallet_address = ?", b.ID, wallet).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHunterNotFound
			}
			if err != nil {
				return err
			}
			return ErrAlreadySubmitted
		}

		return tx.First(&updated, "bounty_id = ? AND wallet_address = ?", b.ID, wallet).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormStore) TransitionStatus(ctx context.Context, contractAddress string, from []string, to string) error {
	res := s.DB.WithContext(ctx).Model(&models.Bounty{}).
		Where("contract_address = ? AND status IN ?", contractAddress, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Bounty{}).
			Where("contract_address = ?", contractAddress).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrBountyNotFound
		}
		return ErrIllegalState
	}
	return nil
}

func (s *GormStore) ResolveWinner(ctx context.Context, contractAddress, winnerWallet string) (*models.Bounty, error) {
	winner := models.NormalizeWallet(winnerWallet)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Bounty
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, "contract_address = ?", contractAddress).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBountyNotFound
			}
			return err
		}

		if b.Winner != nil {
			if *b.Winner == winner {
				return nil // idempotent re-resolve with the same winner
			}
			return ErrWinnerConflict
		}
		if models.IsTerminalStatus(b.Status) {
			return ErrIllegalState
		}

		var entry models.BountyHunterEntry
		err = tx.First(&entry, "bounty_id = ? AND wallet_address = ? AND status = ?",
			b.ID, winner, models.HunterStatusSubmitted).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWinnerNotEligible
			}
			return err
		}

		// winner is write-once
		res := tx.Model(&models.Bounty{}).
			Where("id = ? AND winner IS NULL AND status IN ?", b.ID,
				[]string{models.BountyStatusOpen, models.BountyStatusUnderReview}).
			Updates(map[string]any{
				"winner": winner,
				"status": models.BountyStatusCompleted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWinnerConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBounty(ctx, contractAddress)
}

func (s *GormStore) CloseExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Bounty{}).
		Where("status = ? AND expires_at <= ?", models.BountyStatusOpen, cutoff).
		Update("status", models.BountyStatusClosed)
	return res.RowsAffected, res.Error
}

func (s *GormStore) TouchLastSynced(ctx context.Context, contractAddress string, syncedAt time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.Bounty{}).
		Where("contract_address = ?", contractAddress).
		Update("last_synced_at", syncedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBountyNotFound
	}
	return nil
}
