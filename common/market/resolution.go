package market

import (
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

type ResolutionParams struct {
	YesReissuanceUtxo      *common.UnblindedUtxo
	NoReissuanceUtxo       *common.UnblindedUtxo
	CovenantCollateralUtxo *common.UnblindedUtxo
	Outcome                Side
	OracleSignature        [64]byte
	Fee                    txutils.Fee
	TokenBlindingKey       []byte
}

// BuildResolution moves reissuance tokens and collateral, unchanged, to the
// address of the resolved state attested by the oracle.
//
// Inputs: [yes token, no token, covenant collateral, fee]
// Outputs: [yes token, no token, collateral, fee, fee change]
func (m *CompiledMarket) BuildResolution(p ResolutionParams) (*Transition, error) {
	if err := VerifyOracleSignature(m.Params, p.Outcome, p.OracleSignature); err != nil {
		return nil, err
	}
	if err := m.requireReissuanceUtxos(
		p.YesReissuanceUtxo, p.NoReissuanceUtxo, StateUnresolved,
	); err != nil {
		return nil, err
	}
	if err := m.requireCovenantUtxo(
		p.CovenantCollateralUtxo, m.Params.CollateralAsset, StateUnresolved,
		"covenant collateral",
	); err != nil {
		return nil, err
	}

	if err := txutils.ValidateBlindingKey(p.TokenBlindingKey); err != nil {
		return nil, err
	}

	feeChange, err := p.Fee.Change()
	if err != nil {
		return nil, err
	}

	to := p.Outcome.ResolvedState()
	resolvedScript, err := m.ScriptPubKey(to)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := m.addInputs(
		updater, StateUnresolved, 3,
		p.YesReissuanceUtxo, p.NoReissuanceUtxo, p.CovenantCollateralUtxo, p.Fee.Utxo,
	); err != nil {
		return nil, err
	}

	outputs := []psetv2.OutputArgs{
		txutils.TokenOutput(
			m.Params.YesReissuanceToken, p.YesReissuanceUtxo.Value, resolvedScript,
			p.TokenBlindingKey, 3,
		),
		txutils.TokenOutput(
			m.Params.NoReissuanceToken, p.NoReissuanceUtxo.Value, resolvedScript,
			p.TokenBlindingKey, 3,
		),
		txutils.Output(
			m.Params.CollateralAsset, p.CovenantCollateralUtxo.Value, resolvedScript,
		),
		p.Fee.Output(),
	}
	changes, err := txutils.ChangeOutputs(feeChange)
	if err != nil {
		return nil, err
	}

	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &Transition{
		Pset: updater.Pset,
		Path: SpendingPath{
			Kind:            PathOracleResolve,
			Outcome:         p.Outcome,
			OracleSignature: p.OracleSignature,
		},
		From:           StateUnresolved,
		To:             to,
		CovenantInputs: []int{0, 1, 2},
	}, nil
}
