package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/common/order"
	"github.com/deadcat-network/deadcat/common/pool"
	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/deadcat-network/deadcat/internal/core/ports"
	badgerdb "github.com/deadcat-network/deadcat/internal/infrastructure/db/badger"
	"github.com/timshannon/badgerhold/v4"
)

var (
	marketStoreTypes = map[string]func(...interface{}) (domain.MarketRepository, error){
		"badger": badgerdb.NewMarketRepository,
	}
	orderStoreTypes = map[string]func(...interface{}) (domain.MakerOrderRepository, error){
		"badger": badgerdb.NewMakerOrderRepository,
	}
	poolStoreTypes = map[string]func(...interface{}) (domain.PoolRepository, error){
		"badger": badgerdb.NewPoolRepository,
	}
)

type ServiceConfig struct {
	DataStoreType   string
	DataStoreConfig []interface{}
}

type service struct {
	marketStore domain.MarketRepository
	orderStore  domain.MakerOrderRepository
	poolStore   domain.PoolRepository
}

func NewService(config ServiceConfig) (ports.DiscoveryStore, error) {
	marketStoreFactory, ok := marketStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	orderStoreFactory, ok := orderStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	poolStoreFactory, ok := poolStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	marketStore, err := marketStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create market store: %w", err)
	}
	orderStore, err := orderStoreFactory(config.DataStoreConfig...)
	if err != nil {
		marketStore.Close()
		return nil, fmt.Errorf("failed to create maker order store: %w", err)
	}
	poolStore, err := poolStoreFactory(config.DataStoreConfig...)
	if err != nil {
		marketStore.Close()
		orderStore.Close()
		return nil, fmt.Errorf("failed to create pool store: %w", err)
	}

	return &service{marketStore, orderStore, poolStore}, nil
}

func (s *service) IngestMarket(
	ctx context.Context, params market.ContractParams, meta domain.MarketMetadata,
) (*domain.Market, error) {
	m, err := domain.NewMarket(params, meta)
	if err != nil {
		return nil, err
	}

	if err := s.marketStore.Add(ctx, *m); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return s.marketStore.Get(ctx, m.Id)
		}
		return nil, err
	}
	return m, nil
}

func (s *service) IngestMakerOrder(
	ctx context.Context, params order.MakerOrderParams,
	makerPubKey, nonce [32]byte, eventRefs []string,
) (*domain.MakerOrder, error) {
	o, err := domain.NewMakerOrder(params, makerPubKey, nonce, eventRefs)
	if err != nil {
		return nil, err
	}

	if err := s.orderStore.Add(ctx, *o); err != nil {
		if !errors.Is(err, badgerhold.ErrKeyExists) {
			return nil, err
		}

		// known order, only remember where it was announced
		stored, err := s.orderStore.Get(ctx, o.Uid)
		if err != nil {
			return nil, err
		}
		stored.AddEventRefs(eventRefs)
		if err := s.orderStore.Update(ctx, *stored); err != nil {
			return nil, err
		}
		return stored, nil
	}
	return o, nil
}

func (s *service) IngestPool(
	ctx context.Context, params pool.PoolParams, issuedLp uint64, marketId string,
) (*domain.Pool, error) {
	p, err := domain.NewPool(params, issuedLp, marketId)
	if err != nil {
		return nil, err
	}

	if err := s.poolStore.Add(ctx, *p); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return s.poolStore.Get(ctx, p.Id)
		}
		return nil, err
	}
	return p, nil
}

func (s *service) Markets() domain.MarketRepository {
	return s.marketStore
}

func (s *service) MakerOrders() domain.MakerOrderRepository {
	return s.orderStore
}

func (s *service) Pools() domain.PoolRepository {
	return s.poolStore
}

func (s *service) Close() {
	s.marketStore.Close()
	s.orderStore.Close()
	s.poolStore.Close()
}
