package pool

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

const Template = covenant.Template("amm_pool")

// CompiledPool is the pool covenant compiled for a set of params. Its
// address depends on the issued LP supply.
type CompiledPool struct {
	Params   PoolParams
	Compiled *covenant.Compiled

	engine covenant.Engine
}

func Compile(engine covenant.Engine, params PoolParams) (*CompiledPool, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	compiled, err := covenant.Compile(engine, Template, covenant.Arguments{
		"YES_ASSET":           covenant.U256(params.YesAsset),
		"NO_ASSET":            covenant.U256(params.NoAsset),
		"LBTC_ASSET":          covenant.U256(params.LbtcAsset),
		"LP_ASSET":            covenant.U256(params.LpAsset),
		"LP_REISSUANCE_TOKEN": covenant.U256(params.LpReissuanceToken),
		"FEE_BPS":             covenant.U64(params.FeeBps),
		"COSIGNER_PUBKEY":     covenant.U256(params.CosignerPubKey),
	})
	if err != nil {
		return nil, err
	}

	return &CompiledPool{
		Params:   params,
		Compiled: compiled,
		engine:   engine,
	}, nil
}

func (p *CompiledPool) Cmr() [32]byte {
	return p.Compiled.Cmr
}

func (p *CompiledPool) PoolId() PoolId {
	return p.Params.PoolId()
}

func (p *CompiledPool) Tree(issuedLp uint64) (*common.CovenantTree, error) {
	return common.NewStatefulCovenant(p.Compiled.Cmr, issuedLp)
}

func (p *CompiledPool) ScriptPubKey(issuedLp uint64) ([]byte, error) {
	tree, err := p.Tree(issuedLp)
	if err != nil {
		return nil, err
	}
	return tree.ScriptPubKey(), nil
}

func (p *CompiledPool) ControlBlock(issuedLp uint64) ([]byte, error) {
	tree, err := p.Tree(issuedLp)
	if err != nil {
		return nil, err
	}
	return tree.ControlBlock(), nil
}

func (p *CompiledPool) Address(issuedLp uint64, net common.Network) (string, error) {
	tree, err := p.Tree(issuedLp)
	if err != nil {
		return "", err
	}
	return tree.Address(net)
}

// PoolUtxos are the four covenant outputs holding the pool.
type PoolUtxos struct {
	Yes     *common.UnblindedUtxo
	No      *common.UnblindedUtxo
	Lbtc    *common.UnblindedUtxo
	LpToken *common.UnblindedUtxo
}

func (u PoolUtxos) Reserves() Reserves {
	return Reserves{Yes: u.Yes.Value, No: u.No.Value, Lbtc: u.Lbtc.Value}
}

func (u PoolUtxos) list() []*common.UnblindedUtxo {
	return []*common.UnblindedUtxo{u.Yes, u.No, u.Lbtc, u.LpToken}
}

// validatePoolUtxos checks the pool outputs are all at the address of
// issuedLp and hold the expected assets.
func (p *CompiledPool) validatePoolUtxos(utxos PoolUtxos, issuedLp uint64) error {
	script, err := p.ScriptPubKey(issuedLp)
	if err != nil {
		return err
	}

	assets := []common.AssetID{
		p.Params.YesAsset, p.Params.NoAsset, p.Params.LbtcAsset, p.Params.LpReissuanceToken,
	}
	names := []string{"yes reserve", "no reserve", "lbtc reserve", "lp reissuance token"}
	for i, utxo := range utxos.list() {
		if err := txutils.RequireCovenantUtxo(utxo, assets[i], script, names[i]); err != nil {
			return err
		}
	}
	return nil
}

// addInputs adds the four pool utxos as program leaf spends of the covenant
// at issuedLp, followed by the external utxos.
func (p *CompiledPool) addInputs(
	updater *psetv2.Updater, pool PoolUtxos, issuedLp uint64, utxos ...*common.UnblindedUtxo,
) error {
	tree, err := p.Tree(issuedLp)
	if err != nil {
		return err
	}
	for _, utxo := range pool.list() {
		if _, err := txutils.AddCovenantInput(updater, utxo, tree); err != nil {
			return err
		}
	}
	return txutils.AddInputs(updater, utxos...)
}

// poolOutputs returns the four pool outputs at the address of issuedLp. The
// LP reissuance token is blinded with blindingKey by input blinderIndex.
func (p *CompiledPool) poolOutputs(
	reserves Reserves, lpToken *common.UnblindedUtxo, issuedLp uint64,
	blindingKey []byte, blinderIndex int,
) ([]psetv2.OutputArgs, error) {
	if reserves.IsZero() {
		return nil, fmt.Errorf("%w: pool reserves can't be emptied", ErrInsufficientReserve)
	}
	if err := txutils.ValidateBlindingKey(blindingKey); err != nil {
		return nil, err
	}

	script, err := p.ScriptPubKey(issuedLp)
	if err != nil {
		return nil, err
	}
	return []psetv2.OutputArgs{
		txutils.Output(p.Params.YesAsset, reserves.Yes, script),
		txutils.Output(p.Params.NoAsset, reserves.No, script),
		txutils.Output(p.Params.LbtcAsset, reserves.Lbtc, script),
		txutils.TokenOutput(
			p.Params.LpReissuanceToken, lpToken.Value, script, blindingKey, blinderIndex,
		),
	}, nil
}

// Transaction is an unsigned pool transaction. The pool inputs are always
// the first four, input 0 executes Path.
type Transaction struct {
	Pset     *psetv2.Pset
	Path     SpendingPath
	IssuedLp uint64
}

// Finalize attaches the covenant witness stacks to the four pool inputs.
func (p *CompiledPool) Finalize(tx *Transaction, genesisHash *chainhash.Hash) error {
	if tx.Path.Kind == PathCreation {
		return nil
	}

	controlBlock, err := p.ControlBlock(tx.IssuedLp)
	if err != nil {
		return err
	}

	for i := 0; i < poolInputs; i++ {
		path := tx.Path
		if i > 0 {
			path = SpendingPath{Kind: PathSecondary}
		}

		if err := covenant.FinalizeInput(
			p.engine, p.Compiled, Schema, path.Witness(), controlBlock,
			tx.Pset, i, genesisHash,
		); err != nil {
			return fmt.Errorf("failed to finalize input %d (%s): %w", i, path.Kind, err)
		}
	}
	return nil
}
