package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service runs the provisioning steps against a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) Store() Store {
	return s.store
}

// CreateMockTokens ensures a mock token exists for each symbol.
// Every symbol is attempted; the returned error joins the individual failures.
func (s *Service) CreateMockTokens(ctx context.Context, symbols []string) error {
	var errs []error
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		token, err := s.store.UpsertToken(ctx, symbol, "Mock "+symbol, MockTokenDecimals)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("mock token ready",
			slog.String("symbol", token.Symbol),
			slog.String("id", token.ID.String()),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to create mock tokens: %w", errors.Join(errs...))
	}
	return nil
}

// ProvisionCustodialAccounts ensures a custodial account exists for each name.
func (s *Service) ProvisionCustodialAccounts(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		account, err := s.store.UpsertCustodialAccount(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("custodial account ready",
			slog.String("name", account.Name),
			slog.String("id", account.ID.String()),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to provision custodial accounts: %w", errors.Join(errs...))
	}
	return nil
}
