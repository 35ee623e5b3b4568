package order

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/vulpemventures/go-elements/psetv2"
)

type CancelParams struct {
	Utxo         *common.UnblindedUtxo
	RefundScript []byte
	Fee          txutils.Fee
}

// BuildCancel refunds the whole order to the maker with a key-path spend.
//
// Inputs: [order, fee]
// Outputs: [refund, fee, fee change]
func (o *CompiledOrder) BuildCancel(c CancelParams) (*psetv2.Pset, error) {
	offered := o.Params.OfferedAsset()
	if err := txutils.RequireCovenantUtxo(
		c.Utxo, offered, o.ScriptPubKey(), "order",
	); err != nil {
		return nil, err
	}
	if len(c.RefundScript) == 0 {
		return nil, fmt.Errorf("missing refund destination")
	}

	feeChange, err := c.Fee.Change()
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if _, err := txutils.AddInput(updater, c.Utxo, txscript.SigHashDefault); err != nil {
		return nil, err
	}
	if _, err := txutils.AddInput(updater, c.Fee.Utxo, txscript.SigHashAll); err != nil {
		return nil, err
	}

	outputs := []psetv2.OutputArgs{
		txutils.Output(offered, c.Utxo.Value, c.RefundScript),
		c.Fee.Output(),
	}
	changes, err := txutils.ChangeOutputs(feeChange)
	if err != nil {
		return nil, err
	}
	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}
	return updater.Pset, nil
}

// SignCancel signs the order input with the maker key tweaked by the
// covenant tree and attaches the key-path witness.
func (o *CompiledOrder) SignCancel(
	pset *psetv2.Pset, inputIndex int, makerKey *secp256k1.PrivateKey,
	genesisHash *chainhash.Hash,
) error {
	if inputIndex < 0 || inputIndex >= len(pset.Inputs) {
		return fmt.Errorf("input index %d out of range", inputIndex)
	}
	if common.XOnly(makerKey.PubKey()) != o.Params.MakerPubKey {
		return fmt.Errorf("signing key does not match the order maker key")
	}

	root := o.tree.MerkleRoot()
	tweak := common.TapTweakHash(o.tree.InternalKey, root[:])
	tweakedKey, err := common.TweakPrivKey(makerKey, tweak[:])
	if err != nil {
		return err
	}

	preimage, err := common.TaprootPreimage(genesisHash, pset, inputIndex, nil)
	if err != nil {
		return err
	}

	sig, err := schnorr.Sign(tweakedKey, preimage)
	if err != nil {
		return err
	}

	sigBytes := sig.Serialize()
	if sighashType := pset.Inputs[inputIndex].SigHashType; sighashType != txscript.SigHashDefault {
		sigBytes = append(sigBytes, byte(sighashType))
	}

	return covenant.AttachWitness(pset, inputIndex, [][]byte{sigBytes})
}
