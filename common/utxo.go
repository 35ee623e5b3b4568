package common

import (
	"fmt"

	"github.com/vulpemventures/go-elements/elementsutil"
	"github.com/vulpemventures/go-elements/transaction"
)

type Outpoint struct {
	Txid string
	Vout uint32
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid, o.Vout)
}

// UnblindedUtxo is a previous output whose asset and value are known to the
// caller, together with the blinding factors needed to rebuild its commitments.
// TxOut is the output as found on chain (explicit or confidential).
type UnblindedUtxo struct {
	Outpoint
	TxOut               *transaction.TxOutput
	Asset               AssetID
	Value               uint64
	AssetBlindingFactor [32]byte
	ValueBlindingFactor [32]byte
}

// NewExplicitUtxo builds an unblinded utxo for an explicit (unconfidential)
// output locked by script.
func NewExplicitUtxo(
	outpoint Outpoint, asset AssetID, value uint64, script []byte,
) (UnblindedUtxo, error) {
	valueBytes, err := elementsutil.ValueToBytes(value)
	if err != nil {
		return UnblindedUtxo{}, fmt.Errorf("failed to convert value to bytes: %s", err)
	}

	return UnblindedUtxo{
		Outpoint: outpoint,
		TxOut:    transaction.NewTxOutput(asset.Explicit(), valueBytes, script),
		Asset:    asset,
		Value:    value,
	}, nil
}

func (u UnblindedUtxo) Script() []byte {
	if u.TxOut == nil {
		return nil
	}
	return u.TxOut.Script
}

func (u UnblindedUtxo) IsConfidential() bool {
	if u.TxOut == nil {
		return false
	}
	isExplicit := func(b []byte) bool { return len(b) > 0 && b[0] == 0x01 }
	return !isExplicit(u.TxOut.Asset) || !isExplicit(u.TxOut.Value)
}
