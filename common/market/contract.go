package market

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

const Template = covenant.Template("prediction_market")

// CompiledMarket is the market covenant compiled for a set of params. It
// is immutable and safe for concurrent use.
type CompiledMarket struct {
	Params   ContractParams
	Compiled *covenant.Compiled

	engine covenant.Engine
}

func Compile(engine covenant.Engine, params ContractParams) (*CompiledMarket, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	compiled, err := covenant.Compile(engine, Template, params.arguments())
	if err != nil {
		return nil, err
	}

	return &CompiledMarket{
		Params:   params,
		Compiled: compiled,
		engine:   engine,
	}, nil
}

func (p ContractParams) arguments() covenant.Arguments {
	return covenant.Arguments{
		"ORACLE_PUBKEY":        covenant.U256(p.OraclePubKey),
		"COLLATERAL_ASSET":     covenant.U256(p.CollateralAsset),
		"YES_ASSET":            covenant.U256(p.YesAsset),
		"NO_ASSET":             covenant.U256(p.NoAsset),
		"YES_REISSUANCE_TOKEN": covenant.U256(p.YesReissuanceToken),
		"NO_REISSUANCE_TOKEN":  covenant.U256(p.NoReissuanceToken),
		"COLLATERAL_PER_TOKEN": covenant.U64(p.CollateralPerToken),
		"EXPIRY_TIME":          covenant.U32(p.ExpiryTime),
	}
}

func (m *CompiledMarket) Cmr() [32]byte {
	return m.Compiled.Cmr
}

func (m *CompiledMarket) MarketId() MarketId {
	return m.Params.MarketId()
}

func (m *CompiledMarket) Tree(state MarketState) (*common.CovenantTree, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, state)
	}
	return common.NewStatefulCovenant(m.Compiled.Cmr, uint64(state))
}

func (m *CompiledMarket) ScriptPubKey(state MarketState) ([]byte, error) {
	tree, err := m.Tree(state)
	if err != nil {
		return nil, err
	}
	return tree.ScriptPubKey(), nil
}

func (m *CompiledMarket) ControlBlock(state MarketState) ([]byte, error) {
	tree, err := m.Tree(state)
	if err != nil {
		return nil, err
	}
	return tree.ControlBlock(), nil
}

func (m *CompiledMarket) Address(state MarketState, net common.Network) (string, error) {
	tree, err := m.Tree(state)
	if err != nil {
		return "", err
	}
	return tree.Address(net)
}

// requireCovenantUtxo checks that utxo holds asset at the address of state.
func (m *CompiledMarket) requireCovenantUtxo(
	utxo *common.UnblindedUtxo, asset common.AssetID, state MarketState, name string,
) error {
	script, err := m.ScriptPubKey(state)
	if err != nil {
		return err
	}
	return txutils.RequireCovenantUtxo(utxo, asset, script, name)
}

// addInputs adds the first covenant utxos as program leaf spends of the
// covenant at state, followed by the remaining utxos.
func (m *CompiledMarket) addInputs(
	updater *psetv2.Updater, state MarketState, covenant int, utxos ...*common.UnblindedUtxo,
) error {
	tree, err := m.Tree(state)
	if err != nil {
		return err
	}
	for i, utxo := range utxos {
		if i < covenant {
			_, err = txutils.AddCovenantInput(updater, utxo, tree)
		} else {
			_, err = txutils.AddInput(updater, utxo, txscript.SigHashAll)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func mul(a, b uint64) (uint64, error) {
	v, err := txutils.Mul64(a, b)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrCollateralOverflow, err)
	}
	return v, nil
}
