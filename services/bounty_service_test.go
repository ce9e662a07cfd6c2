package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bounty-board-service/models"
	"bounty-board-service/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *BountyService {
	return NewBountyService(repository.NewMemoryStore(), nil)
}

func validCreateInput(contract string) CreateBountyInput {
	return CreateBountyInput{
		ContractAddress:  contract,
		BountyProvider:   "0xprovider",
		BountyAmount:     1000,
		TimeInterval:     604800,
		InitialTimestamp: 1700000000,
		IssueURL:         "https://github.com/org/repo/issues/42",
		Title:            "Fix pagination in the dashboard",
		Description:      "See the linked issue",
		ExpiresAt:        time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestCreateBounty_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateBountyInput)
	}{
		{"missing contract address", func(in *CreateBountyInput) { in.ContractAddress = "" }},
		{"missing provider", func(in *CreateBountyInput) { in.BountyProvider = "" }},
		{"missing title", func(in *CreateBountyInput) { in.Title = "" }},
		{"zero amount", func(in *CreateBountyInput) { in.BountyAmount = 0 }},
		{"negative amount", func(in *CreateBountyInput) { in.BountyAmount = -5 }},
		{"zero interval", func(in *CreateBountyInput) { in.TimeInterval = 0 }},
		{"missing initial timestamp", func(in *CreateBountyInput) { in.InitialTimestamp = 0 }},
		{"missing issue url", func(in *CreateBountyInput) { in.IssueURL = "" }},
		{"relative issue url", func(in *CreateBountyInput) { in.IssueURL = "/org/repo/issues/42" }},
		{"garbage issue url", func(in *CreateBountyInput) { in.IssueURL = "not a url" }},
		{"zero expiry", func(in *CreateBountyInput) { in.ExpiresAt = time.Time{} }},
		{"past expiry", func(in *CreateBountyInput) { in.ExpiresAt = time.Now().Add(-time.Minute) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput("0xaaa")
			tt.mutate(&in)
			_, err := svc.CreateBounty(ctx, in)
			require.Error(t, err)
			assert.Equal(t, KindInvalidInput, ErrKind(err))
		})
	}
}

func TestCreateBounty_RoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	in := validCreateInput("0xAAA000000000000000000000000000000000dead")
	created, err := svc.CreateBounty(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.BountyStatusOpen, created.Status)
	assert.Nil(t, created.Winner)
	assert.Empty(t, created.Hunters)
	assert.Equal(t, "fix-pagination-in-the-dashboard", created.Slug)

	got, err := svc.GetByContractAddress(ctx, in.ContractAddress)
	require.NoError(t, err)
	assert.Equal(t, in.ContractAddress, got.ContractAddress)
	assert.Equal(t, in.BountyProvider, got.BountyProvider)
	assert.Equal(t, float64(1000), got.BountyAmount)
	assert.Equal(t, int64(604800), got.TimeInterval)
	assert.Equal(t, int64(1700000000), got.InitialTimestamp)
	assert.Equal(t, in.IssueURL, got.IssueURL)
	assert.True(t, in.ExpiresAt.Equal(got.ExpiresAt))
}

func TestCreateBounty_DuplicateContract(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBounty(ctx, validCreateInput("0xaaa"))
	require.NoError(t, err)

	_, err = svc.CreateBounty(ctx, validCreateInput("0xaaa"))
	require.Error(t, err)
	assert.Equal(t, KindConflict, ErrKind(err))
}

func TestBountyLifecycle_Scenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	contract := "0xAAA000000000000000000000000000000000beef"

	_, err := svc.CreateBounty(ctx, validCreateInput(contract))
	require.NoError(t, err)

	_, err = svc.JoinBounty(ctx, contract, JoinBountyInput{Email: "one@example.com", WalletAddress: "0xB1"})
	require.NoError(t, err)
	_, err = svc.JoinBounty(ctx, contract, JoinBountyInput{Email: "two@example.com", WalletAddress: "0xB2"})
	require.NoError(t, err)

	entry, err := svc.SubmitWork(ctx, contract, SubmitWorkInput{
		WalletAddress: "0xB1",
		PRURL:         "https://github.com/org/repo/pull/1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.HunterStatusSubmitted, entry.Status)
	assert.True(t, entry.PRRaised)

	bounty, err := svc.ResolveWinner(ctx, contract, "0xB1")
	require.NoError(t, err)
	assert.Equal(t, models.BountyStatusCompleted, bounty.Status)
	require.NotNil(t, bounty.Winner)
	assert.Equal(t, "0xb1", *bounty.Winner, "winner is stored lower-cased")

	winner, err := svc.GetWinner(ctx, contract)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, "0xb1", *winner)

	// idempotent re-resolve with the same winner (any case)
	_, err = svc.ResolveWinner(ctx, contract, "0XB1")
	assert.NoError(t, err)

	// a different winner on a resolved bounty is a conflict
	_, err = svc.ResolveWinner(ctx, contract, "0xB2")
	require.Error(t, err)
	assert.Equal(t, KindConflict, ErrKind(err))

	// winner never changed
	winner, err = svc.GetWinner(ctx, contract)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, "0xb1", *winner)
}

func TestJoinBounty_Rules(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBounty(ctx, validCreateInput("0xaaa"))
	require.NoError(t, err)

	_, err = svc.JoinBounty(ctx, "0xaaa", JoinBountyInput{Email: "h@x.y", WalletAddress: "0xb1"})
	require.NoError(t, err)

	// same wallet, different case, still one join per bounty
	_, err = svc.JoinBounty(ctx, "0xaaa", JoinBountyInput{Email: "h@x.y", WalletAddress: "0xB1"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, ErrKind(err))

	// unknown bounty
	_, err = svc.JoinBounty(ctx, "0xmissing", JoinBountyInput{Email: "h@x.y", WalletAddress: "0xb2"})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, ErrKind(err))

	// joining a closed bounty is an illegal transition
	require.NoError(t, svc.CloseBounty(ctx, "0xaaa"))
	_, err = svc.JoinBounty(ctx, "0xaaa", JoinBountyInput{Email: "h@x.y", WalletAddress: "0xb3"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrKind(err))
}

func TestSubmitWork_Rules(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBounty(ctx, validCreateInput("0xaaa"))
	require.NoError(t, err)
	_, err = svc.JoinBounty(ctx, "0xaaa", JoinBountyInput{Email: "h@x.y", WalletAddress: "0xb1"})
	require.NoError(t, err)

	// submit without a prior join
	_, err = svc.SubmitWork(ctx, "0xaaa", SubmitWorkInput{WalletAddress: "0xb9", PRURL: "https://github.com/org/repo/pull/5"})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, ErrKind(err))

	// invalid pr url
	_, err = svc.SubmitWork(ctx, "0xaaa", SubmitWorkInput{WalletAddress: "0xb1", PRURL: "pull/5"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, ErrKind(err))

	// submission is still legal while the bounty is under review
	require.NoError(t, svc.AdvanceToUnderReview(ctx, "0xaaa"))
	_, err = svc.SubmitWork(ctx, "0xaaa", SubmitWorkInput{WalletAddress: "0xb1", PRURL: "https://github.com/org/repo/pull/5"})
	require.NoError(t, err)

	// no resubmission
	_, err = svc.SubmitWork(ctx, "0xaaa", SubmitWorkInput{WalletAddress: "0xb1", PRURL: "https://github.com/org/repo/pull/6"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrKind(err))

	// the entry kept its original submission
	b, err := svc.GetByContractAddress(ctx, "0xaaa")
	require.NoError(t, err)
	entry := b.HunterByWallet("0xb1")
	require.NotNil(t, entry)
	require.NotNil(t, entry.PRURL)
	assert.Equal(t, "https://github.com/org/repo/pull/5", *entry.PRURL)

	// terminal state accepts no submissions
	require.NoError(t, svc.CancelBounty(ctx, "0xaaa"))
	_, err = svc.SubmitWork(ctx, "0xaaa", SubmitWorkInput{WalletAddress: "0xb1", PRURL: "https://github.com/org/repo/pull/7"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrKind(err))
}

func TestStatusTransitions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBounty(ctx, validCreateInput("0xaaa"))
	require.NoError(t, err)

	require.NoError(t, svc.AdvanceToUnderReview(ctx, "0xaaa"))

	// UNDER_REVIEW → UNDER_REVIEW is not legal
	err = svc.AdvanceToUnderReview(ctx, "0xaaa")
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrKind(err))

	// closing from review is fine, closing twice is not
	require.NoError(t, svc.CloseBounty(ctx, "0xaaa"))
	err = svc.CloseBounty(ctx, "0xaaa")
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrKind(err))

	// terminal bounties cannot be cancelled either
	err = svc.CancelBounty(ctx, "0xaaa")
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, ErrKind(err))
}

func TestGetWinner_NoWinner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBounty(ctx, validCreateInput("0xaaa"))
	require.NoError(t, err)

	winner, err := svc.GetWinner(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Nil(t, winner, "unresolved bounty reports a nil winner, not an empty string")

	_, err = svc.GetWinner(ctx, "0xmissing")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, ErrKind(err))
}

func TestListBounties(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		in := validCreateInput(fmt.Sprintf("0xaaa%d", i))
		in.BountyProvider = "0xalice"
		_, err := svc.CreateBounty(ctx, in)
		require.NoError(t, err)
	}
	other := validCreateInput("0xbbb")
	other.BountyProvider = "0xbob"
	_, err := svc.CreateBounty(ctx, other)
	require.NoError(t, err)

	page, err := svc.ListBounties(ctx, ListBountiesInput{BountyProvider: "0xalice", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
	assert.Equal(t, "0xaaa2", page.Items[0].ContractAddress, "newest first")

	page, err = svc.ListBounties(ctx, ListBountiesInput{BountyProvider: "0xalice", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)

	// status filter
	require.NoError(t, svc.CloseBounty(ctx, "0xaaa0"))
	page, err = svc.ListBounties(ctx, ListBountiesInput{BountyProvider: "0xalice", Status: models.BountyStatusClosed, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "0xaaa0", page.Items[0].ContractAddress)

	// invalid paging and filters
	_, err = svc.ListBounties(ctx, ListBountiesInput{Page: 0, PageSize: 10})
	assert.Equal(t, KindInvalidInput, ErrKind(err))
	_, err = svc.ListBounties(ctx, ListBountiesInput{Page: 1, PageSize: -1})
	assert.Equal(t, KindInvalidInput, ErrKind(err))
	_, err = svc.ListBounties(ctx, ListBountiesInput{Page: 1, PageSize: 10, Status: "DRAFT"})
	assert.Equal(t, KindInvalidInput, ErrKind(err))
}

func TestResolveWinner_RequiresSubmission(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBounty(ctx, validCreateInput("0xaaa"))
	require.NoError(t, err)
	_, err = svc.JoinBounty(ctx, "0xaaa", JoinBountyInput{Email: "h@x.y", WalletAddress: "0xb1"})
	require.NoError(t, err)

	// joined but still WORKING
	_, err = svc.ResolveWinner(ctx, "0xaaa", "0xb1")
	require.Error(t, err)
	assert.Equal(t, KindConflict, ErrKind(err))

	// never joined at all
	_, err = svc.ResolveWinner(ctx, "0xaaa", "0xb9")
	require.Error(t, err)
	assert.Equal(t, KindConflict, ErrKind(err))

	b, err := svc.GetByContractAddress(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, models.BountyStatusOpen, b.Status)
	assert.Nil(t, b.Winner)
}
