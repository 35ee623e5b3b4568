package common

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func P2TRScript(taprootKey *secp256k1.PublicKey) ([]byte, error) {
	return txscript.NewScriptBuilder().AddOp(txscript.OP_1).AddData(schnorr.SerializePubKey(taprootKey)).Script()
}

func IsP2TRScript(script []byte) bool {
	return len(script) == 32+1+1 &&
		script[0] == txscript.OP_1 &&
		script[1] == txscript.OP_DATA_32
}

// ParseXOnlyKey parses a 32-byte BIP340 public key.
func ParseXOnlyKey(key [32]byte) (*secp256k1.PublicKey, error) {
	pubkey, err := schnorr.ParsePubKey(key[:])
	if err != nil {
		return nil, fmt.Errorf("invalid x-only public key: %s", err)
	}
	return pubkey, nil
}

func XOnly(key *secp256k1.PublicKey) [32]byte {
	var out [32]byte
	copy(out[:], schnorr.SerializePubKey(key))
	return out
}

func DecodeHash32(str string) ([32]byte, error) {
	var out [32]byte
	buf, err := hex.DecodeString(str)
	if err != nil {
		return out, err
	}
	if len(buf) != 32 {
		return out, fmt.Errorf("invalid length, expected 32 bytes got %d", len(buf))
	}
	copy(out[:], buf)
	return out, nil
}
