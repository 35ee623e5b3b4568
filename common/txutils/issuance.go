package txutils

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/deadcat-network/deadcat/common"
	"github.com/vulpemventures/go-elements/psetv2"
	"github.com/vulpemventures/go-elements/transaction"
)

var (
	// ErrUnblindedReissuanceToken rejects a reissuance token utxo without
	// asset blinding factor: the reissuance nonce would be zero and the
	// input would be read as a new issuance.
	ErrUnblindedReissuanceToken = errors.New("reissuance token utxo is not blinded")
	ErrIssuedAssetMismatch      = errors.New("issued asset mismatch")
	ErrInvalidBlindingKey       = errors.New("invalid token blinding key")
)

// Issuance describes the issuance fields of an input. A zero blinding nonce
// marks a new issuance, in which case Entropy is the contract hash.
// Reissuances carry the token blinding factor as nonce and the asset entropy.
type Issuance struct {
	Value         uint64
	InflationKeys uint64
	Entropy       [32]byte
	BlindingNonce [32]byte
}

func NewIssuance(tokenAmount uint64) Issuance {
	return Issuance{InflationKeys: tokenAmount}
}

// Reissuance spends token to issue amount more of the asset of entropy.
func Reissuance(
	amount uint64, entropy [32]byte, token *common.UnblindedUtxo,
) (Issuance, error) {
	if token == nil {
		return Issuance{}, fmt.Errorf("%w: reissuance token", ErrMissingUtxo)
	}
	if token.AssetBlindingFactor == ([32]byte{}) {
		return Issuance{}, fmt.Errorf(
			"%w: %s", ErrUnblindedReissuanceToken, token.Outpoint,
		)
	}
	return Issuance{
		Value:         amount,
		Entropy:       entropy,
		BlindingNonce: token.AssetBlindingFactor,
	}, nil
}

// SetIssuance writes the issuance fields of an input. Issuance amounts are
// always explicit, so tokens are derived with the non-confidential flag.
func SetIssuance(updater *psetv2.Updater, inputIndex int, issuance Issuance) error {
	if inputIndex < 0 || inputIndex >= len(updater.Pset.Inputs) {
		return fmt.Errorf("input index %d out of range", inputIndex)
	}

	blinded := false
	in := &updater.Pset.Inputs[inputIndex]
	in.IssuanceValue = issuance.Value
	in.IssuanceInflationKeys = issuance.InflationKeys
	in.IssuanceAssetEntropy = append([]byte{}, issuance.Entropy[:]...)
	in.IssuanceBlindingNonce = append([]byte{}, issuance.BlindingNonce[:]...)
	in.BlindedIssuance = &blinded
	return nil
}

// IssuanceEntropy is the entropy of a new issuance made by the input
// spending outpoint.
func IssuanceEntropy(outpoint common.Outpoint, contractHash [32]byte) ([32]byte, error) {
	var entropy [32]byte

	txid, err := chainhash.NewHashFromStr(outpoint.Txid)
	if err != nil {
		return entropy, fmt.Errorf("invalid outpoint txid: %s", err)
	}
	buf, err := transaction.ComputeEntropy(txid[:], outpoint.Vout, contractHash[:])
	if err != nil {
		return entropy, err
	}
	copy(entropy[:], buf)
	return entropy, nil
}

// IssuedAssets returns the asset and the reissuance token of an issuance
// with explicit amounts.
func IssuedAssets(entropy [32]byte) (asset, token common.AssetID, err error) {
	assetBuf, err := transaction.ComputeAsset(append([]byte{}, entropy[:]...))
	if err != nil {
		return
	}
	tokenBuf, err := transaction.ComputeReissuanceToken(
		append([]byte{}, entropy[:]...), psetv2.NonConfidentialReissuanceTokenFlag,
	)
	if err != nil {
		return
	}
	copy(asset[:], assetBuf)
	copy(token[:], tokenBuf)
	return
}

// RequireIssuedAssets checks that entropy issues exactly asset and token.
func RequireIssuedAssets(
	entropy [32]byte, asset, token common.AssetID, name string,
) error {
	issuedAsset, issuedToken, err := IssuedAssets(entropy)
	if err != nil {
		return err
	}
	if issuedAsset != asset {
		return fmt.Errorf(
			"%w: %s issues asset %s, expected %s", ErrIssuedAssetMismatch, name, issuedAsset, asset,
		)
	}
	if issuedToken != token {
		return fmt.Errorf(
			"%w: %s issues token %s, expected %s", ErrIssuedAssetMismatch, name, issuedToken, token,
		)
	}
	return nil
}

// RequireNewIssuance checks the assets issued by the input spending outpoint
// with a zero contract hash.
func RequireNewIssuance(
	outpoint common.Outpoint, asset, token common.AssetID, name string,
) error {
	entropy, err := IssuanceEntropy(outpoint, [32]byte{})
	if err != nil {
		return err
	}
	return RequireIssuedAssets(entropy, asset, token, name)
}

// ValidateBlindingKey checks that key is a valid compressed public key.
func ValidateBlindingKey(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: missing", ErrInvalidBlindingKey)
	}
	if _, err := btcec.ParsePubKey(key); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBlindingKey, err)
	}
	return nil
}

// TokenOutput locks a reissuance token at script and marks it for blinding,
// so that spending it later yields a non-zero reissuance nonce.
func TokenOutput(
	asset common.AssetID, amount uint64, script, blindingKey []byte, blinderIndex int,
) psetv2.OutputArgs {
	return psetv2.OutputArgs{
		Asset:        asset.String(),
		Amount:       amount,
		Script:       script,
		BlindingKey:  blindingKey,
		BlinderIndex: uint32(blinderIndex),
	}
}
