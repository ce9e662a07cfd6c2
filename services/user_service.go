package services

import (
	"context"
	"log"
	"strings"

	"bounty-board-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserService manages hunter/provider accounts and keeps their denormalized
// bounty counters moving. It also implements StatsRecorder for BountyService.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

type RegisterUserInput struct {
	WalletAddress string `json:"wallet_address"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	Bio           string `json:"bio"`

	// Hunter variant
	Skills string `json:"skills"`

	// Provider variant
	OrganizationName    string `json:"organization_name"`
	OrganizationID      string `json:"organization_id"`
	OrganizationWebsite string `json:"organization_website"`
	RoleInOrganization  string `json:"role_in_organization"`
}

func validateRegisterUser(in RegisterUserInput) error {
	if in.WalletAddress == "" {
		return ErrInvalidInput("wallet_address is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return ErrInvalidInput("a valid email is required")
	}
	if in.Name == "" {
		return ErrInvalidInput("name is required")
	}
	if in.Username == "" {
		return ErrInvalidInput("username is required")
	}
	if !models.ValidUserRole(in.Role) {
		return ErrInvalidInput("role must be 'hunter' or 'provider'")
	}
	return nil
}

// RegisterUser creates a new account. Wallet, email and username uniqueness
// is settled at the insert, so two concurrent signups can't both win.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterUserInput) (*models.User, error) {
	if err := validateRegisterUser(in); err != nil {
		return nil, err
	}

	user := &models.User{
		WalletAddress:       models.NormalizeWallet(in.WalletAddress),
		Email:               strings.ToLower(in.Email),
		Name:                in.Name,
		Username:            in.Username,
		Role:                in.Role,
		Skills:              in.Skills,
		OrganizationName:    in.OrganizationName,
		OrganizationID:      in.OrganizationID,
		OrganizationWebsite: in.OrganizationWebsite,
		RoleInOrganization:  in.RoleInOrganization,
	}
	if in.Bio != "" {
		user.Bio = &in.Bio
	}

	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return nil, ErrUnavailable("storage error: " + res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict("wallet, email or username already registered")
	}
	return user, nil
}

// GetByWallet loads one account by (normalized) wallet address.
func (s *UserService) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	if wallet == "" {
		return nil, ErrInvalidInput("wallet_address is required")
	}
	var user models.User
	err := s.DB.WithContext(ctx).
		First(&user, "wallet_address = ?", models.NormalizeWallet(wallet)).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound("user not found")
		}
		return nil, ErrUnavailable("storage error: " + err.Error())
	}
	return &user, nil
}

// CheckUser reports whether a wallet is registered and with which role.
func (s *UserService) CheckUser(ctx context.Context, wallet string) (bool, string, error) {
	user, err := s.GetByWallet(ctx, wallet)
	if err != nil {
		if ErrKind(err) == KindNotFound {
			return false, "", nil
		}
		return false, "", err
	}
	return true, user.Role, nil
}

// GetProvider loads a provider account; hunters resolve to NotFound here.
func (s *UserService) GetProvider(ctx context.Context, wallet string) (*models.User, error) {
	user, err := s.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleProvider {
		return nil, ErrNotFound("no provider registered for this wallet")
	}
	return user, nil
}

// SetProfilePicture stores the uploaded avatar URL.
func (s *UserService) SetProfilePicture(ctx context.Context, wallet, pictureURL string) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("wallet_address = ?", models.NormalizeWallet(wallet)).
		Update("profile_picture", pictureURL)
	if res.Error != nil {
		return ErrUnavailable("storage error: " + res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return ErrNotFound("user not found")
	}
	return nil
}

// StatsRecorder implementation: best-effort counter roll-forward. A missing
// account is fine, on-chain actors are not required to register.

func (s *UserService) RecordListing(ctx context.Context, providerWallet string) {
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("wallet_address = ? AND role = ?", models.NormalizeWallet(providerWallet), models.UserRoleProvider).
		Update("bounties_listed", gorm.Expr("bounties_listed + 1")).Error
	if err != nil {
		log.Printf("[Stats] failed to record listing for %s: %v", providerWallet, err)
	}
}

func (s *UserService) RecordParticipation(ctx context.Context, hunterWallet string) {
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("wallet_address = ? AND role = ?", models.NormalizeWallet(hunterWallet), models.UserRoleHunter).
		Update("bounties_participated", gorm.Expr("bounties_participated + 1")).Error
	if err != nil {
		log.Printf("[Stats] failed to record participation for %s: %v", hunterWallet, err)
	}
}

func (s *UserService) RecordSubmission(ctx context.Context, hunterWallet string) {
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("wallet_address = ? AND role = ?", models.NormalizeWallet(hunterWallet), models.UserRoleHunter).
		Update("active_submissions", gorm.Expr("active_submissions + 1")).Error
	if err != nil {
		log.Printf("[Stats] failed to record submission for %s: %v", hunterWallet, err)
	}
}

func (s *UserService) RecordWin(ctx context.Context, winnerWallet, providerWallet string, amount float64) {
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("wallet_address = ? AND role = ?", models.NormalizeWallet(winnerWallet), models.UserRoleHunter).
		Updates(map[string]any{
			"bounties_won":     gorm.Expr("bounties_won + 1"),
			"total_amount_won": gorm.Expr("total_amount_won + ?", amount),
		}).Error
	if err != nil {
		log.Printf("[Stats] failed to record win for %s: %v", winnerWallet, err)
	}

	err = s.DB.WithContext(ctx).Model(&models.User{}).
		Where("wallet_address = ? AND role = ?", models.NormalizeWallet(providerWallet), models.UserRoleProvider).
		Update("total_distributed", gorm.Expr("total_distributed + ?", amount)).Error
	if err != nil {
		log.Printf("[Stats] failed to record distribution for %s: %v", providerWallet, err)
	}
}
