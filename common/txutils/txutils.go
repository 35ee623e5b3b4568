// Package txutils holds the pset plumbing shared by the contract families:
// inputs from unblinded utxos, issuance fields, burn/fee/change outputs and
// checked arithmetic.
package txutils

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/deadcat-network/deadcat/common"
	"github.com/vulpemventures/go-elements/psetv2"
)

var (
	ErrInsufficientFee          = errors.New("insufficient fee")
	ErrMissingChangeDestination = errors.New("missing change destination")
	ErrScriptMismatch           = errors.New("utxo script mismatch")
	ErrAssetMismatch            = errors.New("utxo asset mismatch")
	ErrMissingUtxo              = errors.New("missing utxo")
	ErrOverflow                 = errors.New("arithmetic overflow")
	ErrUnderflow                = errors.New("arithmetic underflow")
)

// NewPset returns an updater for an empty pset, locktime 0 means no locktime.
func NewPset(locktime uint32) (*psetv2.Updater, error) {
	var nLocktime *uint32
	if locktime > 0 {
		nLocktime = &locktime
	}

	pset, err := psetv2.New(nil, nil, nLocktime)
	if err != nil {
		return nil, err
	}
	return psetv2.NewUpdater(pset)
}

// AddInput appends the utxo as input with its witness utxo and returns
// the input index.
func AddInput(
	updater *psetv2.Updater, utxo *common.UnblindedUtxo, sighashType txscript.SigHashType,
) (int, error) {
	if utxo == nil || utxo.TxOut == nil {
		return -1, ErrMissingUtxo
	}

	if err := updater.AddInputs([]psetv2.InputArgs{
		{
			Txid:    utxo.Txid,
			TxIndex: utxo.Vout,
		},
	}); err != nil {
		return -1, err
	}

	index := int(updater.Pset.Global.InputCount) - 1
	if err := updater.AddInWitnessUtxo(index, utxo.TxOut); err != nil {
		return -1, err
	}
	if err := updater.AddInSighashType(index, sighashType); err != nil {
		return -1, err
	}
	return index, nil
}

// AddCovenantInput adds a utxo locked by tree together with the tap leaf
// script spending its program leaf.
func AddCovenantInput(
	updater *psetv2.Updater, utxo *common.UnblindedUtxo, tree *common.CovenantTree,
) (int, error) {
	if tree == nil {
		return -1, fmt.Errorf("missing covenant tree")
	}
	leaf, err := tree.TapLeafScript()
	if err != nil {
		return -1, err
	}

	index, err := AddInput(updater, utxo, txscript.SigHashAll)
	if err != nil {
		return -1, err
	}
	if err := updater.AddInTapLeafScript(index, leaf); err != nil {
		return -1, err
	}
	return index, nil
}

// AddInputs adds every utxo with SIGHASH_ALL.
func AddInputs(updater *psetv2.Updater, utxos ...*common.UnblindedUtxo) error {
	for _, utxo := range utxos {
		if _, err := AddInput(updater, utxo, txscript.SigHashAll); err != nil {
			return err
		}
	}
	return nil
}

func Output(asset common.AssetID, amount uint64, script []byte) psetv2.OutputArgs {
	return psetv2.OutputArgs{
		Asset:  asset.String(),
		Amount: amount,
		Script: script,
	}
}

// BurnOutput destroys amount of asset with an explicit empty-script output.
func BurnOutput(asset common.AssetID, amount uint64) psetv2.OutputArgs {
	return psetv2.OutputArgs{
		Asset:  asset.String(),
		Amount: amount,
	}
}

func FeeOutput(asset common.AssetID, amount uint64) psetv2.OutputArgs {
	return psetv2.OutputArgs{
		Asset:  asset.String(),
		Amount: amount,
	}
}

// Change is an optional output returning the excess of an input.
type Change struct {
	Asset  common.AssetID
	Amount uint64
	Script []byte
}

// ChangeOutputs returns an output for every non-zero change. A non-zero
// change without destination fails.
func ChangeOutputs(changes ...Change) ([]psetv2.OutputArgs, error) {
	outputs := make([]psetv2.OutputArgs, 0, len(changes))
	for _, change := range changes {
		if change.Amount == 0 {
			continue
		}
		if len(change.Script) == 0 {
			return nil, fmt.Errorf(
				"%w: %d of asset %s", ErrMissingChangeDestination, change.Amount, change.Asset,
			)
		}
		outputs = append(outputs, Output(change.Asset, change.Amount, change.Script))
	}
	return outputs, nil
}

// Fee is the external input paying the network fee.
type Fee struct {
	Utxo         *common.UnblindedUtxo
	Amount       uint64
	ChangeScript []byte
}

// Change returns what is left of the fee input once the fee is paid.
func (f Fee) Change() (Change, error) {
	if f.Utxo == nil {
		return Change{}, fmt.Errorf("%w: fee", ErrMissingUtxo)
	}
	if f.Utxo.Value < f.Amount {
		return Change{}, fmt.Errorf(
			"%w: fee input %d, required %d", ErrInsufficientFee, f.Utxo.Value, f.Amount,
		)
	}
	return Change{
		Asset:  f.Utxo.Asset,
		Amount: f.Utxo.Value - f.Amount,
		Script: f.ChangeScript,
	}, nil
}

func (f Fee) Output() psetv2.OutputArgs {
	return FeeOutput(f.Utxo.Asset, f.Amount)
}

func RequireAsset(utxo *common.UnblindedUtxo, asset common.AssetID, name string) error {
	if utxo == nil {
		return fmt.Errorf("%w: %s", ErrMissingUtxo, name)
	}
	if utxo.Asset != asset {
		return fmt.Errorf(
			"%w: %s has asset %s, expected %s", ErrAssetMismatch, name, utxo.Asset, asset,
		)
	}
	return nil
}

func RequireScript(utxo *common.UnblindedUtxo, script []byte, name string) error {
	if utxo == nil {
		return fmt.Errorf("%w: %s", ErrMissingUtxo, name)
	}
	if !bytes.Equal(utxo.Script(), script) {
		return fmt.Errorf("%w: %s is not locked by the expected script", ErrScriptMismatch, name)
	}
	return nil
}

// RequireCovenantUtxo checks both the asset and the locking script.
func RequireCovenantUtxo(
	utxo *common.UnblindedUtxo, asset common.AssetID, script []byte, name string,
) error {
	if err := RequireAsset(utxo, asset, name); err != nil {
		return err
	}
	return RequireScript(utxo, script, name)
}
