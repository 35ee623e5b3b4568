package application

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/common/order"
	"github.com/deadcat-network/deadcat/common/pool"
	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/deadcat-network/deadcat/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements/psetv2"
)

type service struct {
	network common.Network
	engine  covenant.Engine
	chain   ports.ChainSource
	store   ports.DiscoveryStore
}

func NewService(
	network common.Network, engine covenant.Engine,
	chain ports.ChainSource, store ports.DiscoveryStore,
) (Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("missing covenant engine")
	}
	if chain == nil {
		return nil, fmt.Errorf("missing chain source")
	}
	if store == nil {
		return nil, fmt.Errorf("missing discovery store")
	}
	return &service{network, engine, chain, store}, nil
}

func (s *service) GetInfo(ctx context.Context) (*ServiceInfo, error) {
	height, err := s.chain.BestHeight(ctx)
	if err != nil {
		return nil, err
	}
	policyAsset, err := s.network.PolicyAsset()
	if err != nil {
		return nil, err
	}
	return &ServiceInfo{
		Network:     s.network.Name,
		PolicyAsset: policyAsset.String(),
		BestHeight:  height,
	}, nil
}

func (s *service) AnnounceMarket(
	ctx context.Context, params market.ContractParams, meta domain.MarketMetadata,
) (*MarketInfo, error) {
	compiled, err := market.Compile(s.engine, params)
	if err != nil {
		return nil, err
	}

	m, err := s.store.IngestMarket(ctx, params, meta)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"market": m.Id,
		"cmr":    cmrHex(compiled.Cmr()),
	}).Info("market announced")

	return s.marketInfo(*m, compiled)
}

func (s *service) GetMarketInfo(ctx context.Context, marketId string) (*MarketInfo, error) {
	m, err := s.store.Markets().Get(ctx, marketId)
	if err != nil {
		return nil, err
	}
	compiled, err := market.Compile(s.engine, m.Params)
	if err != nil {
		return nil, err
	}
	return s.marketInfo(*m, compiled)
}

// GetMarketStatus derives the market state from the covenant outputs
// found at each state address and stores it when it changed.
func (s *service) GetMarketStatus(ctx context.Context, marketId string) (*MarketStatus, error) {
	m, err := s.store.Markets().Get(ctx, marketId)
	if err != nil {
		return nil, err
	}
	compiled, err := market.Compile(s.engine, m.Params)
	if err != nil {
		return nil, err
	}

	status := &MarketStatus{
		MarketId: m.Id,
		State:    m.State,
		Utxos:    make([]common.UnblindedUtxo, 0),
	}
	for _, state := range market.States {
		script, err := compiled.ScriptPubKey(state)
		if err != nil {
			return nil, err
		}
		utxos, err := s.chain.ListUnspent(ctx, script)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s outputs: %w", state, err)
		}
		if len(utxos) <= 0 {
			continue
		}

		if status.Funded && status.State != state {
			log.WithFields(log.Fields{
				"market": m.Id,
				"state":  state,
			}).Warn("found covenant outputs at more than one state")
		}
		status.Funded = true
		status.State = state
		status.Utxos = utxos
	}

	for _, utxo := range status.Utxos {
		if utxo.Asset == m.Params.CollateralAsset {
			status.Collateral += utxo.Value
		}
	}

	if status.Funded && status.State != m.State {
		if err := m.UpdateState(status.State); err != nil {
			return nil, err
		}
		if err := s.store.Markets().Update(ctx, *m); err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"market": m.Id,
			"state":  m.State,
		}).Info("market state updated")
	}

	return status, nil
}

func (s *service) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	return s.store.Markets().GetAll(ctx)
}

func (s *service) AnnounceMakerOrder(
	ctx context.Context, params order.MakerOrderParams,
	makerPubKey, nonce [32]byte, eventRefs []string,
) (*OrderInfo, error) {
	params.MakerPubKey = makerPubKey
	params.Nonce = nonce
	compiled, err := order.Compile(s.engine, params)
	if err != nil {
		return nil, err
	}

	o, err := s.store.IngestMakerOrder(ctx, params, makerPubKey, nonce, eventRefs)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order":     o.Uid,
		"direction": params.Direction,
		"price":     params.Price,
	}).Info("maker order announced")

	return s.orderInfo(*o, compiled)
}

// GetMakerOrderStatus updates the order status with what is currently
// locked at the order address.
func (s *service) GetMakerOrderStatus(ctx context.Context, uid string) (*OrderInfo, error) {
	o, err := s.store.MakerOrders().Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	compiled, err := order.Compile(s.engine, o.Params)
	if err != nil {
		return nil, err
	}

	utxos, err := s.chain.ListUnspent(ctx, compiled.ScriptPubKey())
	if err != nil {
		return nil, err
	}

	offered := o.Params.OfferedAsset()
	locked := uint64(0)
	for _, utxo := range utxos {
		if utxo.Asset == offered {
			locked += utxo.Value
		}
	}

	prevStatus := o.Status
	o.UpdateLocked(locked)
	if err := s.store.MakerOrders().Update(ctx, *o); err != nil {
		return nil, err
	}
	if prevStatus != o.Status {
		log.WithFields(log.Fields{
			"order":  o.Uid,
			"status": o.Status,
			"locked": locked,
		}).Info("maker order status updated")
	}

	info, err := s.orderInfo(*o, compiled)
	if err != nil {
		return nil, err
	}
	info.Utxos = utxos
	return info, nil
}

func (s *service) ListOpenMakerOrders(ctx context.Context) ([]domain.MakerOrder, error) {
	return s.store.MakerOrders().GetOpen(ctx)
}

func (s *service) AnnouncePool(
	ctx context.Context, params pool.PoolParams, issuedLp uint64, marketId string,
) (*PoolInfo, error) {
	if len(marketId) > 0 {
		if _, err := s.store.Markets().Get(ctx, marketId); err != nil {
			return nil, err
		}
	}

	compiled, err := pool.Compile(s.engine, params)
	if err != nil {
		return nil, err
	}

	p, err := s.store.IngestPool(ctx, params, issuedLp, marketId)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"pool":      p.Id,
		"fee_bps":   params.FeeBps,
		"issued_lp": issuedLp,
	}).Info("pool announced")

	address, err := compiled.Address(p.IssuedLp, s.network)
	if err != nil {
		return nil, err
	}
	return &PoolInfo{
		Pool:    *p,
		Cmr:     cmrHex(compiled.Cmr()),
		Address: address,
	}, nil
}

func (s *service) GetPoolStatus(
	ctx context.Context, poolId string, issuedLp uint64,
) (*PoolStatus, error) {
	p, err := s.store.Pools().Get(ctx, poolId)
	if err != nil {
		return nil, err
	}
	if issuedLp == 0 {
		issuedLp = p.IssuedLp
	}

	compiled, err := pool.Compile(s.engine, p.Params)
	if err != nil {
		return nil, err
	}
	script, err := compiled.ScriptPubKey(issuedLp)
	if err != nil {
		return nil, err
	}
	address, err := compiled.Address(issuedLp, s.network)
	if err != nil {
		return nil, err
	}

	utxos, err := s.chain.ListUnspent(ctx, script)
	if err != nil {
		return nil, err
	}

	status := &PoolStatus{
		PoolId:   p.Id,
		IssuedLp: issuedLp,
		Address:  address,
		Utxos:    utxos,
	}
	found := map[common.AssetID]bool{}
	for _, utxo := range utxos {
		switch utxo.Asset {
		case p.Params.YesAsset:
			status.Reserves.Yes += utxo.Value
		case p.Params.NoAsset:
			status.Reserves.No += utxo.Value
		case p.Params.LbtcAsset:
			status.Reserves.Lbtc += utxo.Value
		default:
			continue
		}
		found[utxo.Asset] = true
	}
	status.Found = len(found) == 3

	if status.Found && (issuedLp != p.IssuedLp || status.Reserves != p.Reserves) {
		p.Update(issuedLp, status.Reserves)
		if err := s.store.Pools().Update(ctx, *p); err != nil {
			return nil, err
		}
	}
	return status, nil
}

// Broadcast finalizes the inputs that still carry partial signatures,
// covenant inputs are expected to be finalized already.
func (s *service) Broadcast(ctx context.Context, pset *psetv2.Pset) (string, error) {
	for i, in := range pset.Inputs {
		if len(in.FinalScriptWitness) > 0 || len(in.FinalScriptSig) > 0 {
			continue
		}
		if err := psetv2.Finalize(pset, i); err != nil {
			return "", fmt.Errorf("failed to finalize input %d: %s", i, err)
		}
	}

	tx, err := psetv2.Extract(pset)
	if err != nil {
		return "", fmt.Errorf("failed to extract transaction: %s", err)
	}
	txHex, err := tx.ToHex()
	if err != nil {
		return "", err
	}

	txid, err := s.chain.Broadcast(ctx, txHex)
	if err != nil {
		return "", err
	}
	log.WithField("txid", txid).Info("transaction broadcasted")
	return txid, nil
}

func (s *service) Close() {
	s.store.Close()
}

func (s *service) marketInfo(m domain.Market, compiled *market.CompiledMarket) (*MarketInfo, error) {
	addresses := make(map[string]string, len(market.States))
	for _, state := range market.States {
		address, err := compiled.Address(state, s.network)
		if err != nil {
			return nil, err
		}
		addresses[state.String()] = address
	}
	return &MarketInfo{
		Market:    m,
		Cmr:       cmrHex(compiled.Cmr()),
		Addresses: addresses,
	}, nil
}

func (s *service) orderInfo(o domain.MakerOrder, compiled *order.CompiledOrder) (*OrderInfo, error) {
	address, err := compiled.Address(s.network)
	if err != nil {
		return nil, err
	}
	return &OrderInfo{
		Order:              o,
		Cmr:                cmrHex(compiled.Cmr()),
		Address:            address,
		MakerReceiveScript: hex.EncodeToString(compiled.MakerReceiveScript()),
		Utxos:              make([]common.UnblindedUtxo, 0),
	}, nil
}
