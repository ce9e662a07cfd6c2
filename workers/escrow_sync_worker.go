package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"bounty-board-service/services"
	"bounty-board-service/utils"
)

// Settlement is one finalized escrow contract reported by the chain-sync
// service. An empty WinnerWallet means the contract expired unpaid.
type Settlement struct {
	ContractAddress string    `json:"contract_address"`
	WinnerWallet    string    `json:"winner_wallet"`
	SettledAt       time.Time `json:"settled_at"`
}

// EscrowSyncClient polls the chain-sync service and drives winner resolution.
// It is the only writer of the bounty winner field.
type EscrowSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Service    *services.BountyService
}

func NewEscrowSyncClient(svc *services.BountyService) *EscrowSyncClient {
	baseURL := os.Getenv("ESCROW_SYNC_URL")
	if baseURL == "" {
		log.Fatal("ESCROW_SYNC_URL environment variable is required")
	}
	token := os.Getenv("BOUNTY_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("BOUNTY_SERVICE_TOKEN environment variable is required for escrow sync")
	}

	return &EscrowSyncClient{
		BaseURL:    baseURL,
		Token:      token,
		Service:    svc,
		HTTPClient: utils.HTTPClient,
	}
}

// GetSettlements fetches contracts finalized on chain since the given time.
func (c *EscrowSyncClient) GetSettlements(ctx context.Context, since time.Time) ([]Settlement, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/settlements", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call escrow sync service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("escrow sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Settlements []Settlement `json:"settlements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode escrow sync response: %w", err)
	}

	return response.Settlements, nil
}

// apply pushes one settlement through the lifecycle core. Conflicts are
// expected during races (a manual resolve beat the poller) and only logged.
func (c *EscrowSyncClient) apply(ctx context.Context, s Settlement) {
	var err error
	if s.WinnerWallet != "" {
		_, err = c.Service.ResolveWinner(ctx, s.ContractAddress, s.WinnerWallet)
	} else {
		err = c.Service.CloseBounty(ctx, s.ContractAddress)
	}
	if err != nil {
		switch services.ErrKind(err) {
		case services.KindConflict, services.KindInvalidTransition:
			log.Printf("➡️ Settlement for %s already applied: %v", s.ContractAddress, err)
		case services.KindNotFound:
			log.Printf("⚠️ Settlement for unknown bounty %s, contract never registered here", s.ContractAddress)
			return
		default:
			log.Printf("❌ Failed to apply settlement for %s: %v", s.ContractAddress, err)
			return
		}
	}

	if err := c.Service.Store.TouchLastSynced(ctx, s.ContractAddress, time.Now().UTC()); err != nil {
		log.Printf("⚠️ Failed to update last_synced_at for %s: %v", s.ContractAddress, err)
	}
}

// PollEscrow drives the resolve-winner write path from chain settlements.
func PollEscrow(ctx context.Context, client *EscrowSyncClient, pollInterval time.Duration) {
	log.Println("Starting escrow settlement polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Escrow polling stopped.")
			return
		case <-ticker.C:
			logTime := time.Now().UTC()

			settlements, err := client.GetSettlements(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling escrow settlements: %v", err)
				continue
			}

			if len(settlements) == 0 {
				continue
			}
			log.Printf("📥 Received %d settlement(s) from escrow sync service.", len(settlements))

			for _, s := range settlements {
				client.apply(ctx, s)
			}

			// re-applied settlements resolve idempotently, so the cursor
			// always advances
			lastSyncTime = logTime
		}
	}
}
