// Package tokens manages creator token listings. Prices and market caps are
// recorded values; no pricing or matching engine runs in this service.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/app/domain/token"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/pkg/logger"
)

// Service manages creator tokens.
type Service struct {
	store storage.TokenStore
	log   *logger.Logger
}

// New constructs a tokens service.
func New(store storage.TokenStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("tokens")
	}
	return &Service{store: store, log: log}
}

// Create lists a new creator token. Symbols are uppercased and unique; a
// duplicate surfaces as a conflict with no row created.
func (s *Service) Create(ctx context.Context, creatorID, symbol, name, imageURL string, supplyBase float64) (token.Token, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	name = strings.TrimSpace(name)

	if symbol == "" || name == "" {
		return token.Token{}, apierrors.BadRequest("symbol and name are required")
	}
	if supplyBase <= 0 {
		return token.Token{}, apierrors.BadRequest("supplyBase must be positive")
	}

	basePrice := token.DefaultCurve[0].PriceUSD
	created, err := s.store.CreateToken(ctx, token.Token{
		CreatorID:  creatorID,
		Symbol:     symbol,
		Name:       name,
		ImageURL:   strings.TrimSpace(imageURL),
		PriceUSD:   basePrice,
		MarketCap:  basePrice * supplyBase,
		SupplyBase: supplyBase,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return token.Token{}, apierrors.Conflict(fmt.Sprintf("token %s already exists", symbol))
		}
		return token.Token{}, fmt.Errorf("create token: %w", err)
	}

	s.log.WithContext(ctx).WithField("symbol", symbol).Info("token listed")
	return created, nil
}

// GetBySymbol loads a token listing.
func (s *Service) GetBySymbol(ctx context.Context, symbol string) (token.Token, error) {
	t, err := s.store.GetTokenBySymbol(ctx, strings.TrimSpace(symbol))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return token.Token{}, apierrors.NotFound("token not found")
		}
		return token.Token{}, err
	}
	return t, nil
}

// List returns all token listings, newest first.
func (s *Service) List(ctx context.Context) ([]token.Token, error) {
	return s.store.ListTokens(ctx)
}

// Curve returns the static bonding-curve table for an existing token.
func (s *Service) Curve(ctx context.Context, symbol string) ([]token.CurvePoint, error) {
	if _, err := s.GetBySymbol(ctx, symbol); err != nil {
		return nil, err
	}
	return token.DefaultCurve, nil
}
