package provision

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// MockTokenDecimals is the precision used for every mock token.
const MockTokenDecimals = 6

type Token struct {
	ID        uuid.UUID `json:"id" example:"0b7c7f59-9c2c-4b8e-9d87-5fbc7c1d3b1a"`
	Symbol    string    `json:"symbol" example:"USDC"`
	Name      string    `json:"name" example:"Mock USDC"`
	Decimals  int       `json:"decimals" example:"6"`
	CreatedAt time.Time `json:"created_at"`
}

type CustodialAccount struct {
	ID        uuid.UUID `json:"id" example:"4f1c2a1e-2f0a-4c53-9a4a-0a3de2e0f6a8"`
	Name      string    `json:"name" example:"alice"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists provisioning records.
type Store interface {
	UpsertToken(ctx context.Context, symbol, name string, decimals int) (Token, error)
	ListTokens(ctx context.Context) ([]Token, error)
	UpsertCustodialAccount(ctx context.Context, name string) (CustodialAccount, error)
	ListCustodialAccounts(ctx context.Context) ([]CustodialAccount, error)
	GetCustodialAccount(ctx context.Context, id uuid.UUID) (CustodialAccount, error)
	Ping(ctx context.Context) error
}
