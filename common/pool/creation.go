package pool

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/vulpemventures/go-elements/psetv2"
)

// CreationParams bootstrap a pool with the given reserves. The LP asset and
// its reissuance token are issued by the L-BTC funding input, the token is
// blinded with TokenBlindingKey.
type CreationParams struct {
	YesUtxo          *common.UnblindedUtxo
	NoUtxo           *common.UnblindedUtxo
	LbtcUtxo         *common.UnblindedUtxo
	Reserves         Reserves
	InitialLp        uint64
	LpScript         []byte
	ChangeScript     []byte
	Fee              txutils.Fee
	TokenBlindingKey []byte
}

// BuildCreation deposits the initial reserves at the address of InitialLp.
//
// Inputs: [yes, no, lbtc (issuing LP), fee]
// Outputs: [yes, no, lbtc, lp reissuance token, LP, fee, yes change, no change, lbtc change, fee change]
func (p *CompiledPool) BuildCreation(c CreationParams) (*Transaction, error) {
	if c.InitialLp == 0 {
		return nil, fmt.Errorf("%w: initial lp", ErrZeroAmount)
	}
	if c.Reserves.IsZero() {
		return nil, fmt.Errorf("%w: initial reserves", ErrZeroAmount)
	}
	if len(c.LpScript) == 0 {
		return nil, fmt.Errorf("missing lp destination")
	}

	funding := []*common.UnblindedUtxo{c.YesUtxo, c.NoUtxo, c.LbtcUtxo}
	changes := make([]txutils.Change, 0, 4)
	for i, r := range []Reserve{ReserveYes, ReserveNo, ReserveLbtc} {
		change, err := fundingChange(funding[i], p.Params.asset(r), c.Reserves.Get(r), r.String())
		if err != nil {
			return nil, err
		}
		change.Script = c.ChangeScript
		changes = append(changes, change)
	}

	if err := txutils.RequireNewIssuance(
		c.LbtcUtxo.Outpoint, p.Params.LpAsset, p.Params.LpReissuanceToken, "lbtc funding",
	); err != nil {
		return nil, err
	}
	if err := txutils.ValidateBlindingKey(c.TokenBlindingKey); err != nil {
		return nil, err
	}

	feeChange, err := c.Fee.Change()
	if err != nil {
		return nil, err
	}
	changes = append(changes, feeChange)

	script, err := p.ScriptPubKey(c.InitialLp)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := txutils.AddInputs(updater, append(funding, c.Fee.Utxo)...); err != nil {
		return nil, err
	}
	if err := txutils.SetIssuance(updater, 2, txutils.Issuance{
		Value:         c.InitialLp,
		InflationKeys: 1,
	}); err != nil {
		return nil, err
	}

	outputs := []psetv2.OutputArgs{
		txutils.Output(p.Params.YesAsset, c.Reserves.Yes, script),
		txutils.Output(p.Params.NoAsset, c.Reserves.No, script),
		txutils.Output(p.Params.LbtcAsset, c.Reserves.Lbtc, script),
		txutils.TokenOutput(p.Params.LpReissuanceToken, 1, script, c.TokenBlindingKey, 3),
		txutils.Output(p.Params.LpAsset, c.InitialLp, c.LpScript),
		c.Fee.Output(),
	}
	changeOutputs, err := txutils.ChangeOutputs(changes...)
	if err != nil {
		return nil, err
	}

	if err := updater.AddOutputs(append(outputs, changeOutputs...)); err != nil {
		return nil, err
	}

	return &Transaction{
		Pset: updater.Pset,
		Path: SpendingPath{
			Kind:        PathCreation,
			Reserves:    c.Reserves,
			NewIssuedLp: c.InitialLp,
		},
		IssuedLp: c.InitialLp,
	}, nil
}

func fundingChange(
	utxo *common.UnblindedUtxo, asset common.AssetID, amount uint64, name string,
) (txutils.Change, error) {
	if err := txutils.RequireAsset(utxo, asset, name+" funding"); err != nil {
		return txutils.Change{}, err
	}
	if utxo.Value < amount {
		return txutils.Change{}, fmt.Errorf(
			"%w: %s funding %d, required %d", ErrInsufficientFunding, name, utxo.Value, amount,
		)
	}
	return txutils.Change{Asset: asset, Amount: utxo.Value - amount}, nil
}
