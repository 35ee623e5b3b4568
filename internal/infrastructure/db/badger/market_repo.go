package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const marketStoreDir = "markets"

type marketRepository struct {
	store *store
}

func NewMarketRepository(config ...interface{}) (domain.MarketRepository, error) {
	store, err := openStore(marketStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open market store: %s", err)
	}
	return &marketRepository{store}, nil
}

func (r *marketRepository) Add(ctx context.Context, m domain.Market) error {
	return withRetry(func() error {
		return r.store.Insert(m.Id, m)
	})
}

func (r *marketRepository) Update(ctx context.Context, m domain.Market) error {
	return withRetry(func() error {
		return r.store.Update(m.Id, m)
	})
}

func (r *marketRepository) Get(ctx context.Context, id string) (*domain.Market, error) {
	var m domain.Market
	if err := r.store.Get(id, &m); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("market %s not found", id)
		}
		return nil, err
	}
	return &m, nil
}

func (r *marketRepository) GetByState(
	ctx context.Context, state market.MarketState,
) ([]domain.Market, error) {
	var markets []domain.Market
	query := badgerhold.Where("State").Eq(state)
	if err := r.store.Find(&markets, query); err != nil {
		return nil, err
	}
	return markets, nil
}

func (r *marketRepository) GetAll(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	if err := r.store.Find(&markets, &badgerhold.Query{}); err != nil {
		return nil, err
	}
	return markets, nil
}

func (r *marketRepository) Close() {
	// nolint:all
	r.store.Close()
}
