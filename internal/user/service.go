// Package user assembles the public view of an account from its ledger state.
package user

import (
	"context"
	"encoding/json"
	"log/slog"

	"weaveid/internal/identity"
	"weaveid/internal/ledger"
)

// User is the read model returned by profile lookups: the account ID plus
// every identity record anchored on the ledger.
type User struct {
	ID      string            `json:"id"`
	Records []identity.Record `json:"records"`
}

type Service struct {
	ledger ledger.Client
	logger *slog.Logger
}

func NewService(client ledger.Client, logger *slog.Logger) *Service {
	return &Service{ledger: client, logger: logger}
}

// Get reads the account and decodes its signed data entries into identity
// records. Entries that do not decode are skipped rather than failing the
// whole lookup; the ledger may carry data written by other services.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	account, err := s.ledger.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	records := make([]identity.Record, 0, len(account.SignedData))
	for _, entry := range account.SignedData {
		var rec identity.Record
		if err := json.Unmarshal(entry.Data, &rec); err != nil || rec.Provider == "" {
			s.logger.WarnContext(ctx, "skipping undecodable signed data entry",
				slog.String("account_id", id))
			continue
		}
		records = append(records, rec)
	}

	return &User{ID: account.ID, Records: records}, nil
}
