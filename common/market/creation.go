package market

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

// CreationParams spend the two defining outputs whose outpoints determine
// the YES and NO issuances. Their combined value pays the fee.
// TokenBlindingKey blinds the reissuance token outputs.
type CreationParams struct {
	YesDefiningUtxo  *common.UnblindedUtxo
	NoDefiningUtxo   *common.UnblindedUtxo
	FeeAmount        uint64
	ChangeScript     []byte
	TokenBlindingKey []byte
}

// BuildCreation issues the YES and NO reissuance tokens and locks them at
// the dormant address.
func (m *CompiledMarket) BuildCreation(p CreationParams) (*Transition, error) {
	if p.YesDefiningUtxo == nil || p.NoDefiningUtxo == nil {
		return nil, fmt.Errorf("%w: defining utxo", txutils.ErrMissingUtxo)
	}
	if err := txutils.RequireAsset(
		p.NoDefiningUtxo, p.YesDefiningUtxo.Asset, "no defining utxo",
	); err != nil {
		return nil, err
	}
	if err := txutils.RequireNewIssuance(
		p.YesDefiningUtxo.Outpoint, m.Params.YesAsset, m.Params.YesReissuanceToken,
		"yes defining utxo",
	); err != nil {
		return nil, err
	}
	if err := txutils.RequireNewIssuance(
		p.NoDefiningUtxo.Outpoint, m.Params.NoAsset, m.Params.NoReissuanceToken,
		"no defining utxo",
	); err != nil {
		return nil, err
	}
	if err := txutils.ValidateBlindingKey(p.TokenBlindingKey); err != nil {
		return nil, err
	}

	total, err := txutils.Add64(p.YesDefiningUtxo.Value, p.NoDefiningUtxo.Value)
	if err != nil {
		return nil, err
	}
	if total < p.FeeAmount {
		return nil, fmt.Errorf(
			"%w: defining inputs %d, required %d", txutils.ErrInsufficientFee, total, p.FeeAmount,
		)
	}

	dormantScript, err := m.ScriptPubKey(StateDormant)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := txutils.AddInputs(updater, p.YesDefiningUtxo, p.NoDefiningUtxo); err != nil {
		return nil, err
	}
	for i := 0; i < 2; i++ {
		if err := txutils.SetIssuance(updater, i, txutils.NewIssuance(1)); err != nil {
			return nil, err
		}
	}

	feeAsset := p.YesDefiningUtxo.Asset
	outputs := []psetv2.OutputArgs{
		txutils.TokenOutput(m.Params.YesReissuanceToken, 1, dormantScript, p.TokenBlindingKey, 0),
		txutils.TokenOutput(m.Params.NoReissuanceToken, 1, dormantScript, p.TokenBlindingKey, 0),
		txutils.FeeOutput(feeAsset, p.FeeAmount),
	}
	changes, err := txutils.ChangeOutputs(txutils.Change{
		Asset:  feeAsset,
		Amount: total - p.FeeAmount,
		Script: p.ChangeScript,
	})
	if err != nil {
		return nil, err
	}

	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &Transition{
		Pset: updater.Pset,
		From: StateDormant,
		To:   StateDormant,
	}, nil
}
