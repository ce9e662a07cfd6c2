package models

import (
	"time"
)

const (
	UserRoleHunter   = "hunter"
	UserRoleProvider = "provider"
)

// User is a tagged-variant record: common identity columns plus the Role tag
// and role-specific columns. Hunter fields are zero for providers and vice
// versa; readers resolve the variant through Role.
type User struct {
	ID            string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WalletAddress string `json:"wallet_address" gorm:"uniqueIndex;not null"`
	Email         string `json:"email" gorm:"uniqueIndex;not null"`
	Name          string `json:"name" gorm:"not null"`
	Username      string `json:"username" gorm:"uniqueIndex;not null"`
	Role          string `json:"role" gorm:"type:varchar(16);not null;index"`

	ProfilePicture *string `json:"profile_picture,omitempty"`
	Bio            *string `json:"bio,omitempty"`

	// GitHub linkage; tokens live in the auth service, only public linkage here
	GithubUsername  string `json:"github_username,omitempty" gorm:"index"`
	GithubID        string `json:"github_id,omitempty" gorm:"index"`
	GithubConnected bool   `json:"github_connected" gorm:"default:false"`

	// Hunter variant
	Skills               string  `json:"skills,omitempty"` // newline-separated, raw from frontend
	BountiesParticipated int64   `json:"bounties_participated" gorm:"default:0"`
	BountiesWon          int64   `json:"bounties_won" gorm:"default:0"`
	TotalAmountWon       float64 `json:"total_amount_won" gorm:"default:0"`
	ActiveSubmissions    int64   `json:"active_submissions" gorm:"default:0"`

	// Provider variant
	OrganizationName     string     `json:"organization_name,omitempty"`
	OrganizationID       string     `json:"organization_id,omitempty" gorm:"index"`
	OrganizationVerified bool       `json:"organization_verified" gorm:"default:false"`
	VerificationDate     *time.Time `json:"verification_date,omitempty"`
	OrganizationWebsite  string     `json:"organization_website,omitempty"`
	RoleInOrganization   string     `json:"role_in_organization,omitempty"`
	BountiesListed       int64      `json:"bounties_listed" gorm:"default:0"`
	TotalDistributed     float64    `json:"total_distributed" gorm:"default:0"`

	JoinedDate time.Time `json:"joined_date" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ValidUserRole reports whether r is a known role tag.
func ValidUserRole(r string) bool {
	return r == UserRoleHunter || r == UserRoleProvider
}
