package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/custodia-labs/paygate/internal/database"
)

// PostgresStore persists records in Postgres.
type PostgresStore struct {
	queries *database.Queries
}

func NewPostgresStore(db database.DBTX) *PostgresStore {
	return &PostgresStore{queries: database.New(db)}
}

func (s *PostgresStore) UpsertToken(ctx context.Context, symbol, name string, decimals int) (Token, error) {
	row, err := s.queries.UpsertMockToken(ctx, database.UpsertMockTokenParams{
		Symbol:   symbol,
		Name:     name,
		Decimals: int32(decimals),
	})
	if err != nil {
		return Token{}, fmt.Errorf("failed to upsert token %s: %w", symbol, err)
	}
	return tokenFromRow(row), nil
}

func (s *PostgresStore) ListTokens(ctx context.Context) ([]Token, error) {
	rows, err := s.queries.ListMockTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	out := make([]Token, 0, len(rows))
	for _, row := range rows {
		out = append(out, tokenFromRow(row))
	}
	return out, nil
}

func (s *PostgresStore) UpsertCustodialAccount(ctx context.Context, name string) (CustodialAccount, error) {
	row, err := s.queries.UpsertCustodialAccount(ctx, name)
	if err != nil {
		return CustodialAccount{}, fmt.Errorf("failed to upsert custodial account %s: %w", name, err)
	}
	return accountFromRow(row), nil
}

func (s *PostgresStore) ListCustodialAccounts(ctx context.Context) ([]CustodialAccount, error) {
	rows, err := s.queries.ListCustodialAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list custodial accounts: %w", err)
	}
	out := make([]CustodialAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, accountFromRow(row))
	}
	return out, nil
}

func (s *PostgresStore) GetCustodialAccount(ctx context.Context, id uuid.UUID) (CustodialAccount, error) {
	row, err := s.queries.GetCustodialAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CustodialAccount{}, ErrNotFound
		}
		return CustodialAccount{}, fmt.Errorf("failed to get custodial account: %w", err)
	}
	return accountFromRow(row), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if _, err := s.queries.IsDatabaseRunning(ctx); err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	return nil
}

func tokenFromRow(row database.MockToken) Token {
	return Token{
		ID:        row.ID,
		Symbol:    row.Symbol,
		Name:      row.Name,
		Decimals:  int(row.Decimals),
		CreatedAt: row.CreatedAt,
	}
}

func accountFromRow(row database.CustodialAccount) CustodialAccount {
	return CustodialAccount{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
}
