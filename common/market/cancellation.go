package market

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

// CancellationParams burn PairsBurned YES and NO tokens for a refund of
// their collateral. When the whole collateral is refunded the reissuance
// tokens must be spent too, they go back to the dormant address blinded
// with TokenBlindingKey.
type CancellationParams struct {
	CovenantCollateralUtxo *common.UnblindedUtxo
	YesTokenUtxo           *common.UnblindedUtxo
	NoTokenUtxo            *common.UnblindedUtxo
	YesReissuanceUtxo      *common.UnblindedUtxo
	NoReissuanceUtxo       *common.UnblindedUtxo
	PairsBurned            uint64
	RefundScript           []byte
	TokenChangeScript      []byte
	Fee                    txutils.Fee
	TokenBlindingKey       []byte
}

// BuildCancellation refunds collateral against burned pairs.
//
// Partial:
// Inputs: [covenant collateral, YES, NO, fee]
// Outputs: [collateral, burn YES, burn NO, refund, fee, YES change, NO change, fee change]
//
// Full:
// Inputs: [yes token, no token, covenant collateral, YES, NO, fee]
// Outputs: [yes token, no token, burn YES, burn NO, refund, fee, YES change, NO change, fee change]
func (m *CompiledMarket) BuildCancellation(p CancellationParams) (*Transition, error) {
	if p.PairsBurned == 0 {
		return nil, ErrZeroPairs
	}
	if len(p.RefundScript) == 0 {
		return nil, fmt.Errorf("missing refund destination")
	}

	if err := m.requireCovenantUtxo(
		p.CovenantCollateralUtxo, m.Params.CollateralAsset, StateUnresolved,
		"covenant collateral",
	); err != nil {
		return nil, err
	}

	refund, err := m.Params.PairCollateral(p.PairsBurned)
	if err != nil {
		return nil, err
	}
	if refund > p.CovenantCollateralUtxo.Value {
		return nil, fmt.Errorf(
			"%w: locked %d, refund %d",
			ErrInsufficientCollateral, p.CovenantCollateralUtxo.Value, refund,
		)
	}
	remaining := p.CovenantCollateralUtxo.Value - refund
	full := remaining == 0

	if full {
		if p.YesReissuanceUtxo == nil || p.NoReissuanceUtxo == nil {
			return nil, ErrMissingReissuanceUtxos
		}
		if err := m.requireReissuanceUtxos(
			p.YesReissuanceUtxo, p.NoReissuanceUtxo, StateUnresolved,
		); err != nil {
			return nil, err
		}
		if err := txutils.ValidateBlindingKey(p.TokenBlindingKey); err != nil {
			return nil, err
		}
	}

	yesChange, err := tokenChange(p.YesTokenUtxo, m.Params.YesAsset, p.PairsBurned, "yes")
	if err != nil {
		return nil, err
	}
	noChange, err := tokenChange(p.NoTokenUtxo, m.Params.NoAsset, p.PairsBurned, "no")
	if err != nil {
		return nil, err
	}

	feeChange, err := p.Fee.Change()
	if err != nil {
		return nil, err
	}

	inputs := []*common.UnblindedUtxo{}
	outputs := []psetv2.OutputArgs{}
	to := StateUnresolved
	covenantInputs := []int{0}
	if full {
		to = StateDormant
		dormantScript, err := m.ScriptPubKey(StateDormant)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, p.YesReissuanceUtxo, p.NoReissuanceUtxo)
		outputs = append(
			outputs,
			txutils.TokenOutput(
				m.Params.YesReissuanceToken, p.YesReissuanceUtxo.Value, dormantScript,
				p.TokenBlindingKey, 5,
			),
			txutils.TokenOutput(
				m.Params.NoReissuanceToken, p.NoReissuanceUtxo.Value, dormantScript,
				p.TokenBlindingKey, 5,
			),
		)
		// the collateral input executes the cancellation path
		covenantInputs = []int{2, 0, 1}
	} else {
		unresolvedScript, err := m.ScriptPubKey(StateUnresolved)
		if err != nil {
			return nil, err
		}
		outputs = append(
			outputs, txutils.Output(m.Params.CollateralAsset, remaining, unresolvedScript),
		)
	}
	inputs = append(inputs, p.CovenantCollateralUtxo, p.YesTokenUtxo, p.NoTokenUtxo, p.Fee.Utxo)

	outputs = append(
		outputs,
		txutils.BurnOutput(m.Params.YesAsset, p.PairsBurned),
		txutils.BurnOutput(m.Params.NoAsset, p.PairsBurned),
		txutils.Output(m.Params.CollateralAsset, refund, p.RefundScript),
		p.Fee.Output(),
	)
	changes, err := txutils.ChangeOutputs(
		withScript(yesChange, p.TokenChangeScript),
		withScript(noChange, p.TokenChangeScript),
		feeChange,
	)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := m.addInputs(
		updater, StateUnresolved, len(covenantInputs), inputs...,
	); err != nil {
		return nil, err
	}
	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &Transition{
		Pset: updater.Pset,
		Path: SpendingPath{
			Kind:   PathCancellation,
			Amount: p.PairsBurned,
			Full:   full,
		},
		From:           StateUnresolved,
		To:             to,
		CovenantInputs: covenantInputs,
	}, nil
}

// tokenChange checks that utxo holds at least burned tokens of asset and
// returns the excess.
func tokenChange(
	utxo *common.UnblindedUtxo, asset common.AssetID, burned uint64, name string,
) (txutils.Change, error) {
	if err := txutils.RequireAsset(utxo, asset, name+" tokens"); err != nil {
		return txutils.Change{}, err
	}
	if utxo.Value < burned {
		return txutils.Change{}, fmt.Errorf(
			"%w: %s tokens %d, required %d", ErrInsufficientTokens, name, utxo.Value, burned,
		)
	}
	return txutils.Change{Asset: asset, Amount: utxo.Value - burned}, nil
}

func withScript(change txutils.Change, script []byte) txutils.Change {
	change.Script = script
	return change
}
