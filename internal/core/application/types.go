package application

import (
	"context"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/common/order"
	"github.com/deadcat-network/deadcat/common/pool"
	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/vulpemventures/go-elements/psetv2"
)

type Service interface {
	GetInfo(ctx context.Context) (*ServiceInfo, error)
	AnnounceMarket(
		ctx context.Context, params market.ContractParams, meta domain.MarketMetadata,
	) (*MarketInfo, error)
	GetMarketInfo(ctx context.Context, marketId string) (*MarketInfo, error)
	GetMarketStatus(ctx context.Context, marketId string) (*MarketStatus, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	AnnounceMakerOrder(
		ctx context.Context, params order.MakerOrderParams,
		makerPubKey, nonce [32]byte, eventRefs []string,
	) (*OrderInfo, error)
	GetMakerOrderStatus(ctx context.Context, uid string) (*OrderInfo, error)
	ListOpenMakerOrders(ctx context.Context) ([]domain.MakerOrder, error)
	AnnouncePool(
		ctx context.Context, params pool.PoolParams, issuedLp uint64, marketId string,
	) (*PoolInfo, error)
	// GetPoolStatus looks for the pool outputs at the address of issuedLp,
	// or of the last known supply if zero.
	GetPoolStatus(ctx context.Context, poolId string, issuedLp uint64) (*PoolStatus, error)
	Broadcast(ctx context.Context, pset *psetv2.Pset) (string, error)
	Close()
}

type ServiceInfo struct {
	Network     string
	PolicyAsset string
	BestHeight  uint32
}

type MarketInfo struct {
	Market    domain.Market
	Cmr       string
	Addresses map[string]string
}

type MarketStatus struct {
	MarketId string
	// Funded is false when no covenant output was found at any state.
	Funded     bool
	State      market.MarketState
	Collateral uint64
	Utxos      []common.UnblindedUtxo
}

type OrderInfo struct {
	Order              domain.MakerOrder
	Cmr                string
	Address            string
	MakerReceiveScript string
	Utxos              []common.UnblindedUtxo
}

type PoolInfo struct {
	Pool    domain.Pool
	Cmr     string
	Address string
}

type PoolStatus struct {
	PoolId   string
	IssuedLp uint64
	Address  string
	Found    bool
	Reserves pool.Reserves
	Utxos    []common.UnblindedUtxo
}
