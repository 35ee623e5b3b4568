package application_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/covenant/digest"
	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/common/order"
	"github.com/deadcat-network/deadcat/common/pool"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/deadcat-network/deadcat/internal/core/application"
	"github.com/deadcat-network/deadcat/internal/core/domain"
	"github.com/deadcat-network/deadcat/internal/infrastructure/db"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements/psetv2"
)

var (
	ctx    = context.Background()
	engine = digest.NewEngine()
	lbtc   = common.AssetID{0x10}
	yes    = common.AssetID{0x21}
	no     = common.AssetID{0x22}
)

func newService(t *testing.T) (application.Service, *mockedChainSource) {
	store, err := db.NewService(db.ServiceConfig{
		DataStoreType:   "badger",
		DataStoreConfig: []interface{}{"", nil},
	})
	require.NoError(t, err)

	chain := &mockedChainSource{}
	svc, err := application.NewService(common.LiquidRegTest, engine, chain, store)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, chain
}

func TestNewService(t *testing.T) {
	_, err := application.NewService(common.LiquidRegTest, nil, &mockedChainSource{}, nil)
	require.Error(t, err)
	_, err = application.NewService(common.LiquidRegTest, engine, nil, nil)
	require.Error(t, err)
	_, err = application.NewService(common.LiquidRegTest, engine, &mockedChainSource{}, nil)
	require.Error(t, err)
}

func TestGetInfo(t *testing.T) {
	svc, chain := newService(t)
	chain.On("BestHeight", mock.Anything).Return(uint32(120), nil)

	info, err := svc.GetInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, common.LiquidRegTest.Name, info.Network)
	require.Equal(t, uint32(120), info.BestHeight)
	require.Equal(t, common.LiquidRegTest.Elements().AssetID, info.PolicyAsset)

	svc, chain = newService(t)
	chain.On("BestHeight", mock.Anything).Return(uint32(0), fmt.Errorf("unreachable"))
	_, err = svc.GetInfo(ctx)
	require.Error(t, err)
}

func TestMarket(t *testing.T) {
	svc, chain := newService(t)
	params := marketParams(t)

	info, err := svc.AnnounceMarket(ctx, params, domain.MarketMetadata{Question: "rain?"})
	require.NoError(t, err)
	require.Len(t, info.Addresses, 4)
	seen := map[string]struct{}{}
	for _, addr := range info.Addresses {
		seen[addr] = struct{}{}
	}
	require.Len(t, seen, 4)

	got, err := svc.GetMarketInfo(ctx, info.Market.Id)
	require.NoError(t, err)
	require.Equal(t, info.Cmr, got.Cmr)
	require.Equal(t, info.Addresses, got.Addresses)

	compiled, err := market.Compile(engine, params)
	require.NoError(t, err)
	unresolved, err := compiled.ScriptPubKey(market.StateUnresolved)
	require.NoError(t, err)

	chain.On("ListUnspent", mock.Anything, unresolved).Return([]common.UnblindedUtxo{
		newUtxo(t, lbtc, 2000000, unresolved),
		newUtxo(t, yes, 1, unresolved),
	}, nil)
	chain.On("ListUnspent", mock.Anything, mock.Anything).Return([]common.UnblindedUtxo{}, nil)

	status, err := svc.GetMarketStatus(ctx, info.Market.Id)
	require.NoError(t, err)
	require.True(t, status.Funded)
	require.Equal(t, market.StateUnresolved, status.State)
	require.Equal(t, uint64(2000000), status.Collateral)
	require.Len(t, status.Utxos, 2)

	markets, err := svc.ListMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	require.Equal(t, market.StateUnresolved, markets[0].State)

	_, err = svc.GetMarketStatus(ctx, "unknown")
	require.Error(t, err)

	invalid := params
	invalid.ExpiryTime = 0
	_, err = svc.AnnounceMarket(ctx, invalid, domain.MarketMetadata{Question: "rain?"})
	require.ErrorIs(t, err, market.ErrInvalidParams)
}

func TestMarketNotFunded(t *testing.T) {
	svc, chain := newService(t)
	info, err := svc.AnnounceMarket(ctx, marketParams(t), domain.MarketMetadata{Question: "rain?"})
	require.NoError(t, err)

	chain.On("ListUnspent", mock.Anything, mock.Anything).Return([]common.UnblindedUtxo{}, nil)
	status, err := svc.GetMarketStatus(ctx, info.Market.Id)
	require.NoError(t, err)
	require.False(t, status.Funded)
	require.Equal(t, market.StateDormant, status.State)
}

func TestMakerOrder(t *testing.T) {
	svc, chain := newService(t)

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	makerPubKey := common.XOnly(key.PubKey())
	params := order.MakerOrderParams{
		BaseAsset:  yes,
		QuoteAsset: lbtc,
		Price:      500,
		Direction:  order.SellBase,
	}

	info, err := svc.AnnounceMakerOrder(ctx, params, makerPubKey, [32]byte{1}, []string{"ev"})
	require.NoError(t, err)
	require.Equal(t, domain.OrderPending, info.Order.Status)
	require.NotEmpty(t, info.Address)

	params.MakerPubKey = makerPubKey
	params.Nonce = [32]byte{1}
	compiled, err := order.Compile(engine, params)
	require.NoError(t, err)
	require.Equal(t, compiled.OrderUid().String(), info.Order.Uid)
	require.Equal(t, hex.EncodeToString(compiled.MakerReceiveScript()), info.MakerReceiveScript)

	script := compiled.ScriptPubKey()
	chain.On("ListUnspent", mock.Anything, script).Return([]common.UnblindedUtxo{
		newUtxo(t, yes, 100, script),
		newUtxo(t, lbtc, 5, script),
	}, nil).Once()
	chain.On("ListUnspent", mock.Anything, script).Return([]common.UnblindedUtxo{
		newUtxo(t, yes, 60, script),
	}, nil).Once()
	chain.On("ListUnspent", mock.Anything, script).Return([]common.UnblindedUtxo{}, nil).Once()

	expected := []domain.OrderStatus{
		domain.OrderOpen, domain.OrderPartiallyFilled, domain.OrderClosed,
	}
	for i, status := range expected {
		got, err := svc.GetMakerOrderStatus(ctx, info.Order.Uid)
		require.NoError(t, err)
		require.Equal(t, status, got.Order.Status, "step %d", i)
		require.Equal(t, uint64(100), got.Order.InitialAmount)

		open, err := svc.ListOpenMakerOrders(ctx)
		require.NoError(t, err)
		require.Equal(t, got.Order.IsOpen(), len(open) == 1)
	}

	params.Price = 0
	_, err = svc.AnnounceMakerOrder(ctx, params, makerPubKey, [32]byte{2}, nil)
	require.ErrorIs(t, err, order.ErrZeroPrice)
}

func TestPool(t *testing.T) {
	svc, chain := newService(t)
	params := poolParams(t)

	_, err := svc.AnnouncePool(ctx, params, 1000, "unknown")
	require.Error(t, err)

	info, err := svc.AnnouncePool(ctx, params, 1000, "")
	require.NoError(t, err)
	require.NotEmpty(t, info.Address)

	compiled, err := pool.Compile(engine, params)
	require.NoError(t, err)
	script, err := compiled.ScriptPubKey(1500)
	require.NoError(t, err)

	chain.On("ListUnspent", mock.Anything, script).Return([]common.UnblindedUtxo{
		newUtxo(t, yes, 1000, script),
		newUtxo(t, no, 2000, script),
		newUtxo(t, lbtc, 3000, script),
	}, nil)
	chain.On("ListUnspent", mock.Anything, mock.Anything).Return([]common.UnblindedUtxo{}, nil)

	status, err := svc.GetPoolStatus(ctx, info.Pool.Id, 0)
	require.NoError(t, err)
	require.False(t, status.Found)
	require.Equal(t, uint64(1000), status.IssuedLp)

	status, err = svc.GetPoolStatus(ctx, info.Pool.Id, 1500)
	require.NoError(t, err)
	require.True(t, status.Found)
	require.Equal(t, pool.Reserves{Yes: 1000, No: 2000, Lbtc: 3000}, status.Reserves)

	// the last known supply is now 1500
	status, err = svc.GetPoolStatus(ctx, info.Pool.Id, 0)
	require.NoError(t, err)
	require.True(t, status.Found)
	require.Equal(t, uint64(1500), status.IssuedLp)
}

func TestBroadcast(t *testing.T) {
	svc, chain := newService(t)
	chain.On("Broadcast", mock.Anything, mock.Anything).Return("txid", nil)

	newPset := func() *psetv2.Pset {
		updater, err := txutils.NewPset(0)
		require.NoError(t, err)
		utxo := newUtxo(t, lbtc, 1000, []byte{0x51})
		_, err = txutils.AddInput(updater, &utxo, txscript.SigHashAll)
		require.NoError(t, err)
		require.NoError(t, updater.AddOutputs([]psetv2.OutputArgs{
			txutils.Output(lbtc, 900, []byte{0x51}),
			txutils.FeeOutput(lbtc, 100),
		}))
		return updater.Pset
	}

	pset := newPset()
	require.NoError(t, covenant.AttachWitness(pset, 0, [][]byte{{0x01}}))
	txid, err := svc.Broadcast(ctx, pset)
	require.NoError(t, err)
	require.Equal(t, "txid", txid)

	_, err = svc.Broadcast(ctx, newPset())
	require.Error(t, err)
}

func marketParams(t *testing.T) market.ContractParams {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return market.ContractParams{
		OraclePubKey:       common.XOnly(key.PubKey()),
		CollateralAsset:    lbtc,
		YesAsset:           yes,
		NoAsset:            no,
		YesReissuanceToken: common.AssetID{0x31},
		NoReissuanceToken:  common.AssetID{0x32},
		CollateralPerToken: 100000,
		ExpiryTime:         3000000,
	}
}

func poolParams(t *testing.T) pool.PoolParams {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return pool.PoolParams{
		YesAsset:          yes,
		NoAsset:           no,
		LbtcAsset:         lbtc,
		LpAsset:           common.AssetID{0x41},
		LpReissuanceToken: common.AssetID{0x42},
		FeeBps:            30,
		CosignerPubKey:    common.XOnly(key.PubKey()),
	}
}

func newUtxo(
	t *testing.T, asset common.AssetID, value uint64, script []byte,
) common.UnblindedUtxo {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	require.NoError(t, err)

	utxo, err := common.NewExplicitUtxo(
		common.Outpoint{Txid: hex.EncodeToString(buf)}, asset, value, script,
	)
	require.NoError(t, err)
	return utxo
}
