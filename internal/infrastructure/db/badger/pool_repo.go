package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const poolStoreDir = "pools"

type poolRepository struct {
	store *store
}

func NewPoolRepository(config ...interface{}) (domain.PoolRepository, error) {
	store, err := openStore(poolStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool store: %s", err)
	}
	return &poolRepository{store}, nil
}

func (r *poolRepository) Add(ctx context.Context, p domain.Pool) error {
	return withRetry(func() error {
		return r.store.Insert(p.Id, p)
	})
}

func (r *poolRepository) Update(ctx context.Context, p domain.Pool) error {
	return withRetry(func() error {
		return r.store.Update(p.Id, p)
	})
}

func (r *poolRepository) Get(ctx context.Context, id string) (*domain.Pool, error) {
	var p domain.Pool
	if err := r.store.Get(id, &p); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("pool %s not found", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *poolRepository) GetByMarket(
	ctx context.Context, marketId string,
) ([]domain.Pool, error) {
	var pools []domain.Pool
	if err := r.store.Find(&pools, badgerhold.Where("MarketId").Eq(marketId)); err != nil {
		return nil, err
	}
	return pools, nil
}

func (r *poolRepository) GetAll(ctx context.Context) ([]domain.Pool, error) {
	var pools []domain.Pool
	if err := r.store.Find(&pools, &badgerhold.Query{}); err != nil {
		return nil, err
	}
	return pools, nil
}

func (r *poolRepository) Close() {
	// nolint:all
	r.store.Close()
}
