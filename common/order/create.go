package order

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

type CreateParams struct {
	FundingUtxo  *common.UnblindedUtxo
	Amount       uint64
	ChangeScript []byte
	Fee          txutils.Fee
}

// BuildCreate locks Amount of the offered asset at the order address.
//
// Inputs: [funding, fee]
// Outputs: [order, fee, funding change, fee change]
func (o *CompiledOrder) BuildCreate(c CreateParams) (*psetv2.Pset, error) {
	if c.Amount == 0 {
		return nil, ErrZeroAmount
	}

	offered := o.Params.OfferedAsset()
	if err := txutils.RequireAsset(c.FundingUtxo, offered, "funding"); err != nil {
		return nil, err
	}
	if c.FundingUtxo.Value < c.Amount {
		return nil, fmt.Errorf(
			"%w: funding %d, required %d", ErrInsufficientFunding, c.FundingUtxo.Value, c.Amount,
		)
	}

	feeChange, err := c.Fee.Change()
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	for _, in := range []*common.UnblindedUtxo{c.FundingUtxo, c.Fee.Utxo} {
		if _, err := txutils.AddInput(updater, in, txscript.SigHashAll); err != nil {
			return nil, err
		}
	}

	outputs := []psetv2.OutputArgs{
		txutils.Output(offered, c.Amount, o.ScriptPubKey()),
		c.Fee.Output(),
	}
	changes, err := txutils.ChangeOutputs(
		txutils.Change{
			Asset:  offered,
			Amount: c.FundingUtxo.Value - c.Amount,
			Script: c.ChangeScript,
		},
		feeChange,
	)
	if err != nil {
		return nil, err
	}

	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}
	return updater.Pset, nil
}
