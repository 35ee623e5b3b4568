package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const orderStoreDir = "orders"

type makerOrderRepository struct {
	store *store
}

func NewMakerOrderRepository(config ...interface{}) (domain.MakerOrderRepository, error) {
	store, err := openStore(orderStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open maker order store: %s", err)
	}
	return &makerOrderRepository{store}, nil
}

func (r *makerOrderRepository) Add(ctx context.Context, o domain.MakerOrder) error {
	return withRetry(func() error {
		return r.store.Insert(o.Uid, o)
	})
}

func (r *makerOrderRepository) Update(ctx context.Context, o domain.MakerOrder) error {
	return withRetry(func() error {
		return r.store.Update(o.Uid, o)
	})
}

func (r *makerOrderRepository) Get(ctx context.Context, uid string) (*domain.MakerOrder, error) {
	var o domain.MakerOrder
	if err := r.store.Get(uid, &o); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("maker order %s not found", uid)
		}
		return nil, err
	}
	return &o, nil
}

func (r *makerOrderRepository) GetOpen(ctx context.Context) ([]domain.MakerOrder, error) {
	query := badgerhold.Where("Status").In(domain.OrderOpen, domain.OrderPartiallyFilled)
	return r.find(query)
}

func (r *makerOrderRepository) GetByAssets(
	ctx context.Context, base, quote string,
) ([]domain.MakerOrder, error) {
	query := badgerhold.Where("BaseAsset").Eq(base).And("QuoteAsset").Eq(quote)
	return r.find(query)
}

func (r *makerOrderRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *makerOrderRepository) find(query *badgerhold.Query) ([]domain.MakerOrder, error) {
	var orders []domain.MakerOrder
	if err := r.store.Find(&orders, query); err != nil {
		return nil, err
	}
	return orders, nil
}
