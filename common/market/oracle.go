package market

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/deadcat-network/deadcat/common"
)

// OracleMessage is the 32-byte message the oracle signs to attest the
// outcome: SHA256(market_id || outcome), with outcome 0x01 for YES.
func OracleMessage(id MarketId, outcome Side) [32]byte {
	var outcomeByte byte
	if outcome == SideYes {
		outcomeByte = 1
	}

	h := sha256.New()
	h.Write(id[:])
	h.Write([]byte{outcomeByte})

	var msg [32]byte
	copy(msg[:], h.Sum(nil))
	return msg
}

func SignOutcome(oracleKey *btcec.PrivateKey, id MarketId, outcome Side) ([64]byte, error) {
	var sig [64]byte

	msg := OracleMessage(id, outcome)
	signature, err := schnorr.Sign(oracleKey, msg[:])
	if err != nil {
		return sig, err
	}
	copy(sig[:], signature.Serialize())
	return sig, nil
}

func VerifyOracleSignature(params ContractParams, outcome Side, sig [64]byte) error {
	oracleKey, err := common.ParseXOnlyKey(params.OraclePubKey)
	if err != nil {
		return err
	}

	signature, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOracleSignature, err)
	}

	msg := OracleMessage(params.MarketId(), outcome)
	if !signature.Verify(msg[:], oracleKey) {
		return fmt.Errorf("%w: outcome %s", ErrInvalidOracleSignature, outcome)
	}
	return nil
}
