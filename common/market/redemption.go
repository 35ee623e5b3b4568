package market

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

// nonFinalSequence enables the transaction locktime.
const nonFinalSequence = 0xfffffffe

type RedemptionParams struct {
	CovenantCollateralUtxo *common.UnblindedUtxo
	TokenUtxo              *common.UnblindedUtxo
	// Side is the token redeemed. Post-resolution redemptions only accept
	// the winning side.
	Side              Side
	TokensBurned      uint64
	PayoutScript      []byte
	TokenChangeScript []byte
	Fee               txutils.Fee
}

// BuildExpiryRedemption lets holders of either side redeem CollateralPerToken
// per token once the market expired unresolved. The transaction is locked
// at the expiry height.
//
// Inputs: [covenant collateral, tokens, fee]
// Outputs: [collateral (if any left), burn, payout, fee, token change, fee change]
func (m *CompiledMarket) BuildExpiryRedemption(p RedemptionParams) (*Transition, error) {
	if p.TokensBurned == 0 {
		return nil, ErrZeroAmount
	}

	payout, err := mul(p.TokensBurned, m.Params.CollateralPerToken)
	if err != nil {
		return nil, err
	}

	tx, err := m.buildRedemption(p, StateUnresolved, payout, m.Params.ExpiryTime)
	if err != nil {
		return nil, err
	}
	tx.Path = SpendingPath{
		Kind:   PathExpiryRedemption,
		Amount: p.TokensBurned,
		Side:   p.Side,
	}
	return tx, nil
}

// BuildPostResolutionRedemption pays out twice CollateralPerToken per
// winning token burned.
//
// Inputs: [covenant collateral, tokens, fee]
// Outputs: [collateral (if any left), burn, payout, fee, token change, fee change]
func (m *CompiledMarket) BuildPostResolutionRedemption(
	state MarketState, p RedemptionParams,
) (*Transition, error) {
	if !state.IsResolved() {
		return nil, fmt.Errorf("%w: market is %s", ErrInvalidState, state)
	}
	if p.Side != state.WinningSide() {
		return nil, fmt.Errorf(
			"%w: %s tokens cannot be redeemed when %s", ErrInvalidState, p.Side, state,
		)
	}
	if p.TokensBurned == 0 {
		return nil, ErrZeroAmount
	}

	payout, err := m.Params.PairCollateral(p.TokensBurned)
	if err != nil {
		return nil, err
	}

	tx, err := m.buildRedemption(p, state, payout, 0)
	if err != nil {
		return nil, err
	}
	tx.Path = SpendingPath{
		Kind:   PathPostResolutionRedemption,
		Amount: p.TokensBurned,
		Side:   p.Side,
	}
	return tx, nil
}

func (m *CompiledMarket) buildRedemption(
	p RedemptionParams, state MarketState, payout uint64, locktime uint32,
) (*Transition, error) {
	if len(p.PayoutScript) == 0 {
		return nil, fmt.Errorf("missing payout destination")
	}

	if err := m.requireCovenantUtxo(
		p.CovenantCollateralUtxo, m.Params.CollateralAsset, state, "covenant collateral",
	); err != nil {
		return nil, err
	}
	if payout > p.CovenantCollateralUtxo.Value {
		return nil, fmt.Errorf(
			"%w: locked %d, payout %d",
			ErrInsufficientCollateral, p.CovenantCollateralUtxo.Value, payout,
		)
	}
	remaining := p.CovenantCollateralUtxo.Value - payout

	tokenAsset := m.Params.TokenAsset(p.Side)
	change, err := tokenChange(p.TokenUtxo, tokenAsset, p.TokensBurned, p.Side.String())
	if err != nil {
		return nil, err
	}

	feeChange, err := p.Fee.Change()
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(locktime)
	if err != nil {
		return nil, err
	}
	if err := m.addInputs(
		updater, state, 1, p.CovenantCollateralUtxo, p.TokenUtxo, p.Fee.Utxo,
	); err != nil {
		return nil, err
	}
	if locktime > 0 {
		for i := range updater.Pset.Inputs {
			updater.Pset.Inputs[i].Sequence = nonFinalSequence
		}
	}

	outputs := make([]psetv2.OutputArgs, 0, 6)
	if remaining > 0 {
		script, err := m.ScriptPubKey(state)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, txutils.Output(m.Params.CollateralAsset, remaining, script))
	}
	outputs = append(
		outputs,
		txutils.BurnOutput(tokenAsset, p.TokensBurned),
		txutils.Output(m.Params.CollateralAsset, payout, p.PayoutScript),
		p.Fee.Output(),
	)
	changes, err := txutils.ChangeOutputs(withScript(change, p.TokenChangeScript), feeChange)
	if err != nil {
		return nil, err
	}

	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &Transition{
		Pset:           updater.Pset,
		From:           state,
		To:             state,
		CovenantInputs: []int{0},
	}, nil
}
