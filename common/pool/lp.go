package pool

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
)

// DepositParams add liquidity to the pool. LP shares are minted by
// reissuing through the pool's reissuance token.
type DepositParams struct {
	Pool             PoolUtxos
	IssuedLp         uint64
	Deposit          Reserves
	YesUtxo          *common.UnblindedUtxo
	NoUtxo           *common.UnblindedUtxo
	LbtcUtxo         *common.UnblindedUtxo
	LpEntropy        [32]byte
	LpScript         []byte
	ChangeScript     []byte
	Fee              txutils.Fee
	TokenBlindingKey []byte
}

// BuildLpDeposit moves the pool to the address of the new LP supply.
//
// Inputs: [yes, no, lbtc, lp reissuance token, yes funding, no funding, lbtc funding, fee]
// Outputs: [yes, no, lbtc, lp reissuance token, LP, fee, yes change, no change, lbtc change, fee change]
func (p *CompiledPool) BuildLpDeposit(d DepositParams) (*Transaction, error) {
	if err := p.validatePoolUtxos(d.Pool, d.IssuedLp); err != nil {
		return nil, err
	}
	if len(d.LpScript) == 0 {
		return nil, fmt.Errorf("missing lp destination")
	}
	if err := txutils.RequireIssuedAssets(
		d.LpEntropy, p.Params.LpAsset, p.Params.LpReissuanceToken, "lp entropy",
	); err != nil {
		return nil, err
	}

	old := d.Pool.Reserves()
	minted, err := ComputeLpMint(old, d.IssuedLp, d.Deposit)
	if err != nil {
		return nil, err
	}
	newIssuedLp, err := txutils.Add64(d.IssuedLp, minted)
	if err != nil {
		return nil, err
	}

	funding := []*common.UnblindedUtxo{d.YesUtxo, d.NoUtxo, d.LbtcUtxo}
	next := old
	changes := make([]txutils.Change, 0, 4)
	for i, r := range []Reserve{ReserveYes, ReserveNo, ReserveLbtc} {
		change, err := fundingChange(funding[i], p.Params.asset(r), d.Deposit.Get(r), r.String())
		if err != nil {
			return nil, err
		}
		change.Script = d.ChangeScript
		changes = append(changes, change)

		reserve, err := txutils.Add64(old.Get(r), d.Deposit.Get(r))
		if err != nil {
			return nil, err
		}
		next = next.with(r, reserve)
	}

	feeChange, err := d.Fee.Change()
	if err != nil {
		return nil, err
	}
	changes = append(changes, feeChange)

	issuance, err := txutils.Reissuance(minted, d.LpEntropy, d.Pool.LpToken)
	if err != nil {
		return nil, err
	}

	outputs, err := p.poolOutputs(
		next, d.Pool.LpToken, newIssuedLp, d.TokenBlindingKey, poolInputs+len(funding),
	)
	if err != nil {
		return nil, err
	}
	outputs = append(
		outputs,
		txutils.Output(p.Params.LpAsset, minted, d.LpScript),
		d.Fee.Output(),
	)
	changeOutputs, err := txutils.ChangeOutputs(changes...)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := p.addInputs(
		updater, d.Pool, d.IssuedLp, append(funding, d.Fee.Utxo)...,
	); err != nil {
		return nil, err
	}
	if err := txutils.SetIssuance(updater, 3, issuance); err != nil {
		return nil, err
	}
	if err := updater.AddOutputs(append(outputs, changeOutputs...)); err != nil {
		return nil, err
	}

	return &Transaction{
		Pset: updater.Pset,
		Path: SpendingPath{
			Kind:        PathLpDepositWithdraw,
			Reserves:    next,
			NewIssuedLp: newIssuedLp,
		},
		IssuedLp: d.IssuedLp,
	}, nil
}

// WithdrawParams burn LpBurn shares for their part of every reserve.
type WithdrawParams struct {
	Pool             PoolUtxos
	IssuedLp         uint64
	LpUtxo           *common.UnblindedUtxo
	LpBurn           uint64
	PayoutScript     []byte
	LpChangeScript   []byte
	Fee              txutils.Fee
	TokenBlindingKey []byte
}

// BuildLpWithdraw moves the reduced pool to the address of the new LP
// supply. Burning the whole supply is not allowed.
//
// Inputs: [yes, no, lbtc, lp reissuance token, LP, fee]
// Outputs: [yes, no, lbtc, lp reissuance token, burn LP, yes payout, no payout, lbtc payout, fee, LP change, fee change]
func (p *CompiledPool) BuildLpWithdraw(w WithdrawParams) (*Transaction, error) {
	if w.LpBurn == 0 || w.LpBurn >= w.IssuedLp {
		return nil, fmt.Errorf("%w: burn %d, issued %d", ErrInvalidLpBurn, w.LpBurn, w.IssuedLp)
	}
	if err := p.validatePoolUtxos(w.Pool, w.IssuedLp); err != nil {
		return nil, err
	}
	if len(w.PayoutScript) == 0 {
		return nil, fmt.Errorf("missing payout destination")
	}

	lpChange, err := fundingChange(w.LpUtxo, p.Params.LpAsset, w.LpBurn, "lp")
	if err != nil {
		return nil, err
	}
	lpChange.Script = w.LpChangeScript

	old := w.Pool.Reserves()
	next, err := ComputeLpWithdraw(old, w.IssuedLp, w.LpBurn)
	if err != nil {
		return nil, err
	}
	newIssuedLp := w.IssuedLp - w.LpBurn

	feeChange, err := w.Fee.Change()
	if err != nil {
		return nil, err
	}

	outputs, err := p.poolOutputs(
		next, w.Pool.LpToken, newIssuedLp, w.TokenBlindingKey, poolInputs+1,
	)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, txutils.BurnOutput(p.Params.LpAsset, w.LpBurn))
	for _, r := range []Reserve{ReserveYes, ReserveNo, ReserveLbtc} {
		outputs = append(outputs, txutils.Output(
			p.Params.asset(r), old.Get(r)-next.Get(r), w.PayoutScript,
		))
	}
	outputs = append(outputs, w.Fee.Output())
	changes, err := txutils.ChangeOutputs(lpChange, feeChange)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := p.addInputs(
		updater, w.Pool, w.IssuedLp, w.LpUtxo, w.Fee.Utxo,
	); err != nil {
		return nil, err
	}
	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &Transaction{
		Pset: updater.Pset,
		Path: SpendingPath{
			Kind:        PathLpDepositWithdraw,
			Reserves:    next,
			NewIssuedLp: newIssuedLp,
		},
		IssuedLp: w.IssuedLp,
	}, nil
}
