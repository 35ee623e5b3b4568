package ports

import (
	"context"

	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/common/order"
	"github.com/deadcat-network/deadcat/common/pool"
	"github.com/deadcat-network/deadcat/internal/core/domain"
)

// DiscoveryStore keeps the announced contracts. Ingesting an already known
// contract is not an error and returns the stored one.
type DiscoveryStore interface {
	IngestMarket(
		ctx context.Context, params market.ContractParams, meta domain.MarketMetadata,
	) (*domain.Market, error)
	IngestMakerOrder(
		ctx context.Context, params order.MakerOrderParams,
		makerPubKey, nonce [32]byte, eventRefs []string,
	) (*domain.MakerOrder, error)
	IngestPool(
		ctx context.Context, params pool.PoolParams, issuedLp uint64, marketId string,
	) (*domain.Pool, error)
	Markets() domain.MarketRepository
	MakerOrders() domain.MakerOrderRepository
	Pools() domain.PoolRepository
	Close()
}
