package order

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

// TakerFill is a taker paying SpendAmount out of Funding to receive
// ReceiveAmount of the makers' offered assets.
type TakerFill struct {
	Funding       *common.UnblindedUtxo
	SpendAmount   uint64
	ReceiveAsset  common.AssetID
	ReceiveAmount uint64
	ReceiveScript []byte
	ChangeScript  []byte
}

// MakerFill consumes an order output. A non-zero Remainder makes the fill
// partial and re-locks the remainder at the order address.
type MakerFill struct {
	Order              *CompiledOrder
	Utxo               *common.UnblindedUtxo
	MakerReceiveAmount uint64
	Remainder          uint64
}

type FillParams struct {
	Takers []TakerFill
	Makers []MakerFill
	Fee    txutils.Fee
}

// FillTransaction is an unsigned batch fill.
type FillTransaction struct {
	Pset  *psetv2.Pset
	Fills []FilledInput
}

type FilledInput struct {
	Order      *CompiledOrder
	InputIndex int
	Path       FillPath
}

// BuildFill fills one or more orders with one or more takers.
//
// Inputs: [taker fundings..., orders..., fee]
// Outputs: [taker receives..., maker receives..., remainder, fee, taker changes..., fee change]
func BuildFill(p FillParams) (*FillTransaction, error) {
	if len(p.Makers) == 0 {
		return nil, ErrEmptyFill
	}
	if len(p.Takers) == 0 {
		return nil, fmt.Errorf("%w: no takers", ErrEmptyFill)
	}

	balance := newAssetBalance()

	for i, maker := range p.Makers {
		if maker.Order == nil {
			return nil, fmt.Errorf("missing order for maker fill %d", i)
		}
		params := maker.Order.Params
		if err := txutils.RequireCovenantUtxo(
			maker.Utxo, params.OfferedAsset(), maker.Order.ScriptPubKey(),
			fmt.Sprintf("order %d", i),
		); err != nil {
			return nil, err
		}
		if maker.Remainder > 0 && i != len(p.Makers)-1 {
			return nil, fmt.Errorf("%w: order %d", ErrPartialFillNotLast, i)
		}
		if err := params.ValidateFill(
			maker.Utxo.Value, maker.MakerReceiveAmount, maker.Remainder,
		); err != nil {
			return nil, fmt.Errorf("order %s: %w", params.OrderUid(), err)
		}

		if err := balance.in(params.OfferedAsset(), maker.Utxo.Value); err != nil {
			return nil, err
		}
		if err := balance.out(params.ReceivedAsset(), maker.MakerReceiveAmount); err != nil {
			return nil, err
		}
		if err := balance.out(params.OfferedAsset(), maker.Remainder); err != nil {
			return nil, err
		}
	}

	takerChanges := make([]txutils.Change, 0, len(p.Takers))
	for i, taker := range p.Takers {
		if taker.Funding == nil {
			return nil, fmt.Errorf("%w: taker %d funding", txutils.ErrMissingUtxo, i)
		}
		if taker.ReceiveAmount == 0 || taker.SpendAmount == 0 {
			return nil, fmt.Errorf("%w: taker %d", ErrZeroAmount, i)
		}
		if len(taker.ReceiveScript) == 0 {
			return nil, fmt.Errorf("missing receive destination for taker %d", i)
		}
		if taker.Funding.Value < taker.SpendAmount {
			return nil, fmt.Errorf(
				"%w: taker %d funding %d, spends %d",
				ErrInsufficientFunding, i, taker.Funding.Value, taker.SpendAmount,
			)
		}

		// only the spent part of the funding takes part in the fill
		if err := balance.in(taker.Funding.Asset, taker.SpendAmount); err != nil {
			return nil, err
		}
		if err := balance.out(taker.ReceiveAsset, taker.ReceiveAmount); err != nil {
			return nil, err
		}

		takerChanges = append(takerChanges, txutils.Change{
			Asset:  taker.Funding.Asset,
			Amount: taker.Funding.Value - taker.SpendAmount,
			Script: taker.ChangeScript,
		})
	}

	if err := balance.check(); err != nil {
		return nil, err
	}

	feeChange, err := p.Fee.Change()
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	for _, taker := range p.Takers {
		if _, err := txutils.AddInput(updater, taker.Funding, txscript.SigHashAll); err != nil {
			return nil, err
		}
	}

	fills := make([]FilledInput, 0, len(p.Makers))
	outputs := make([]psetv2.OutputArgs, 0, len(p.Takers)+len(p.Makers)+2)
	for _, taker := range p.Takers {
		outputs = append(
			outputs, txutils.Output(taker.ReceiveAsset, taker.ReceiveAmount, taker.ReceiveScript),
		)
	}

	var remainderOutput psetv2.OutputArgs
	hasRemainder := false
	for _, maker := range p.Makers {
		index, err := txutils.AddCovenantInput(updater, maker.Utxo, maker.Order.Tree())
		if err != nil {
			return nil, err
		}

		params := maker.Order.Params
		path := FillPath{
			MakerReceiveAmount: maker.MakerReceiveAmount,
			Remainder:          maker.Remainder,
			ReceiveOutput:      uint32(len(outputs)),
		}
		outputs = append(outputs, txutils.Output(
			params.ReceivedAsset(), maker.MakerReceiveAmount, maker.Order.MakerReceiveScript(),
		))
		if maker.Remainder > 0 {
			hasRemainder = true
			remainderOutput = txutils.Output(
				params.OfferedAsset(), maker.Remainder, maker.Order.ScriptPubKey(),
			)
		}

		fills = append(fills, FilledInput{
			Order:      maker.Order,
			InputIndex: index,
			Path:       path,
		})
	}
	if hasRemainder {
		// the partial fill is always the last one
		fills[len(fills)-1].Path.RemainderOutput = uint32(len(outputs))
		outputs = append(outputs, remainderOutput)
	}

	if _, err := txutils.AddInput(updater, p.Fee.Utxo, txscript.SigHashAll); err != nil {
		return nil, err
	}
	outputs = append(outputs, p.Fee.Output())

	changes, err := txutils.ChangeOutputs(append(takerChanges, feeChange)...)
	if err != nil {
		return nil, err
	}
	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &FillTransaction{
		Pset:  updater.Pset,
		Fills: fills,
	}, nil
}

// Finalize attaches the covenant witness to every order input.
func (tx *FillTransaction) Finalize(genesisHash *chainhash.Hash) error {
	for _, fill := range tx.Fills {
		o := fill.Order
		if err := covenant.FinalizeInput(
			o.engine, o.Compiled, Schema, fill.Path.Witness(), o.ControlBlock(),
			tx.Pset, fill.InputIndex, genesisHash,
		); err != nil {
			return fmt.Errorf("failed to finalize order input %d: %w", fill.InputIndex, err)
		}
	}
	return nil
}

// assetBalance tracks the per-asset flows of a fill, excluding fee and
// change.
type assetBalance struct {
	ins  map[common.AssetID]uint64
	outs map[common.AssetID]uint64
}

func newAssetBalance() *assetBalance {
	return &assetBalance{
		ins:  make(map[common.AssetID]uint64),
		outs: make(map[common.AssetID]uint64),
	}
}

func (b *assetBalance) in(asset common.AssetID, amount uint64) error {
	sum, err := txutils.Add64(b.ins[asset], amount)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMakerOrderOverflow, err)
	}
	b.ins[asset] = sum
	return nil
}

func (b *assetBalance) out(asset common.AssetID, amount uint64) error {
	sum, err := txutils.Add64(b.outs[asset], amount)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMakerOrderOverflow, err)
	}
	b.outs[asset] = sum
	return nil
}

func (b *assetBalance) check() error {
	for asset, in := range b.ins {
		if out := b.outs[asset]; in != out {
			return fmt.Errorf(
				"%w: asset %s in %d, out %d", ErrConservationViolation, asset, in, out,
			)
		}
	}
	for asset, out := range b.outs {
		if _, ok := b.ins[asset]; !ok && out > 0 {
			return fmt.Errorf(
				"%w: asset %s in 0, out %d", ErrConservationViolation, asset, out,
			)
		}
	}
	return nil
}
