package market

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

// IssuanceParams mint Pairs YES and NO tokens against fresh collateral.
// CovenantCollateralUtxo is only used by subsequent issuances. The
// reissuance token utxos must be blinded, TokenBlindingKey blinds them again.
type IssuanceParams struct {
	YesReissuanceUtxo      *common.UnblindedUtxo
	NoReissuanceUtxo       *common.UnblindedUtxo
	CovenantCollateralUtxo *common.UnblindedUtxo
	CollateralUtxo         *common.UnblindedUtxo
	Pairs                  uint64
	YesEntropy             [32]byte
	NoEntropy              [32]byte
	TokenScript            []byte
	CollateralChangeScript []byte
	Fee                    txutils.Fee
	TokenBlindingKey       []byte
}

// BuildInitialIssuance moves the market from dormant to unresolved.
//
// Inputs: [yes token, no token, collateral, fee]
// Outputs: [yes token, no token, collateral, YES, NO, fee, collateral change, fee change]
func (m *CompiledMarket) BuildInitialIssuance(p IssuanceParams) (*Transition, error) {
	return m.buildIssuance(p, StateDormant, PathInitialIssuance)
}

// BuildSubsequentIssuance adds collateral to an unresolved market.
//
// Inputs: [yes token, no token, covenant collateral, collateral, fee]
// Outputs: [yes token, no token, collateral, YES, NO, fee, collateral change, fee change]
func (m *CompiledMarket) BuildSubsequentIssuance(p IssuanceParams) (*Transition, error) {
	if p.CovenantCollateralUtxo == nil {
		return nil, fmt.Errorf("%w: covenant collateral", txutils.ErrMissingUtxo)
	}
	return m.buildIssuance(p, StateUnresolved, PathSubsequentIssuance)
}

func (m *CompiledMarket) buildIssuance(
	p IssuanceParams, from MarketState, kind PathKind,
) (*Transition, error) {
	if p.Pairs == 0 {
		return nil, ErrZeroPairs
	}
	if len(p.TokenScript) == 0 {
		return nil, fmt.Errorf("missing token destination")
	}

	required, err := m.Params.PairCollateral(p.Pairs)
	if err != nil {
		return nil, err
	}

	if err := m.requireReissuanceUtxos(
		p.YesReissuanceUtxo, p.NoReissuanceUtxo, from,
	); err != nil {
		return nil, err
	}
	if err := txutils.RequireIssuedAssets(
		p.YesEntropy, m.Params.YesAsset, m.Params.YesReissuanceToken, "yes entropy",
	); err != nil {
		return nil, err
	}
	if err := txutils.RequireIssuedAssets(
		p.NoEntropy, m.Params.NoAsset, m.Params.NoReissuanceToken, "no entropy",
	); err != nil {
		return nil, err
	}
	yesIssuance, err := txutils.Reissuance(p.Pairs, p.YesEntropy, p.YesReissuanceUtxo)
	if err != nil {
		return nil, err
	}
	noIssuance, err := txutils.Reissuance(p.Pairs, p.NoEntropy, p.NoReissuanceUtxo)
	if err != nil {
		return nil, err
	}
	if err := txutils.ValidateBlindingKey(p.TokenBlindingKey); err != nil {
		return nil, err
	}

	if err := txutils.RequireAsset(
		p.CollateralUtxo, m.Params.CollateralAsset, "collateral",
	); err != nil {
		return nil, err
	}
	if p.CollateralUtxo.Value < required {
		return nil, fmt.Errorf(
			"%w: provided %d, required %d",
			ErrInsufficientCollateral, p.CollateralUtxo.Value, required,
		)
	}

	locked := required
	covenantInputs := []int{0, 1}
	inputs := []*common.UnblindedUtxo{p.YesReissuanceUtxo, p.NoReissuanceUtxo}
	if kind == PathSubsequentIssuance {
		if err := m.requireCovenantUtxo(
			p.CovenantCollateralUtxo, m.Params.CollateralAsset, from, "covenant collateral",
		); err != nil {
			return nil, err
		}
		if locked, err = txutils.Add64(p.CovenantCollateralUtxo.Value, required); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCollateralOverflow, err)
		}
		inputs = append(inputs, p.CovenantCollateralUtxo)
		covenantInputs = append(covenantInputs, 2)
	}
	inputs = append(inputs, p.CollateralUtxo, p.Fee.Utxo)

	feeChange, err := p.Fee.Change()
	if err != nil {
		return nil, err
	}

	unresolvedScript, err := m.ScriptPubKey(StateUnresolved)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := m.addInputs(updater, from, len(covenantInputs), inputs...); err != nil {
		return nil, err
	}
	if err := txutils.SetIssuance(updater, 0, yesIssuance); err != nil {
		return nil, err
	}
	if err := txutils.SetIssuance(updater, 1, noIssuance); err != nil {
		return nil, err
	}

	blinder := len(inputs) - 1
	outputs := []psetv2.OutputArgs{
		txutils.TokenOutput(
			m.Params.YesReissuanceToken, p.YesReissuanceUtxo.Value, unresolvedScript,
			p.TokenBlindingKey, blinder,
		),
		txutils.TokenOutput(
			m.Params.NoReissuanceToken, p.NoReissuanceUtxo.Value, unresolvedScript,
			p.TokenBlindingKey, blinder,
		),
		txutils.Output(m.Params.CollateralAsset, locked, unresolvedScript),
		txutils.Output(m.Params.YesAsset, p.Pairs, p.TokenScript),
		txutils.Output(m.Params.NoAsset, p.Pairs, p.TokenScript),
		p.Fee.Output(),
	}
	changes, err := txutils.ChangeOutputs(
		txutils.Change{
			Asset:  m.Params.CollateralAsset,
			Amount: p.CollateralUtxo.Value - required,
			Script: p.CollateralChangeScript,
		},
		feeChange,
	)
	if err != nil {
		return nil, err
	}

	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &Transition{
		Pset: updater.Pset,
		Path: SpendingPath{
			Kind:  kind,
			Pairs: p.Pairs,
		},
		From:           from,
		To:             StateUnresolved,
		CovenantInputs: covenantInputs,
	}, nil
}

func (m *CompiledMarket) requireReissuanceUtxos(
	yes, no *common.UnblindedUtxo, state MarketState,
) error {
	if yes == nil || no == nil {
		return ErrMissingReissuanceUtxos
	}
	if err := m.requireCovenantUtxo(
		yes, m.Params.YesReissuanceToken, state, "yes reissuance token",
	); err != nil {
		return err
	}
	return m.requireCovenantUtxo(
		no, m.Params.NoReissuanceToken, state, "no reissuance token",
	)
}
