package common

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/vulpemventures/go-elements/payment"
	"github.com/vulpemventures/go-elements/psetv2"
	"github.com/vulpemventures/go-elements/taproot"
)

// SimplicityLeafVersion is the tapleaf version committing to a program CMR.
const SimplicityLeafVersion = 0xbe

const (
	TagTapLeaf   = "TapLeaf/elements"
	TagTapBranch = "TapBranch/elements"
	TagTapTweak  = "TapTweak/elements"
	TagTapData   = "TapData"
)

var (
	ErrInvalidTweak  = errors.New("tweak is not a valid scalar")
	ErrPointInfinity = errors.New("tweaked key is the point at infinity")
)

// BIP-341 nothing-up-my-sleeve point H
var unspendablePoint = []byte{
	0x02, 0x50, 0x92, 0x9b, 0x74, 0xc1, 0xa0, 0x49, 0x54, 0xb7, 0x8b, 0x4b, 0x60, 0x35, 0xe9, 0x7a,
	0x5e, 0x07, 0x8a, 0x5a, 0x0f, 0x28, 0xec, 0x96, 0xd5, 0x47, 0xbf, 0xee, 0x9a, 0xce, 0x80, 0x3a, 0xc0,
}

func UnspendableKey() *secp256k1.PublicKey {
	key, _ := secp256k1.ParsePubKey(unspendablePoint)
	return key
}

// TaggedHash computes SHA256(SHA256(tag) || SHA256(tag) || data...).
func TaggedHash(tag string, data ...[]byte) chainhash.Hash {
	return *chainhash.TaggedHash([]byte(tag), data...)
}

// TapLeafHash commits to a program root under the simplicity leaf version.
func TapLeafHash(cmr [32]byte) chainhash.Hash {
	var buf bytes.Buffer
	buf.WriteByte(SimplicityLeafVersion)
	// writing to a bytes.Buffer never fails
	_ = wire.WriteVarBytes(&buf, 0, cmr[:])
	return TaggedHash(TagTapLeaf, buf.Bytes())
}

// TapDataHash is the hidden sibling leaf carrying a contract state or the
// issued LP supply.
func TapDataHash(value uint64) chainhash.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	return TaggedHash(TagTapData, buf[:])
}

func TapBranchHash(a, b chainhash.Hash) chainhash.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return TaggedHash(TagTapBranch, a[:], b[:])
}

func TapTweakHash(internalKey *secp256k1.PublicKey, merkleRoot []byte) chainhash.Hash {
	return TaggedHash(TagTapTweak, schnorr.SerializePubKey(internalKey), merkleRoot)
}

// TweakPubKey returns lift_x(key) + tweak*G.
func TweakPubKey(key *secp256k1.PublicKey, tweak []byte) (*secp256k1.PublicKey, error) {
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(tweak); overflow || len(tweak) != 32 {
		return nil, ErrInvalidTweak
	}

	evenKey, err := schnorr.ParsePubKey(schnorr.SerializePubKey(key))
	if err != nil {
		return nil, err
	}

	var point, tweakPoint, result btcec.JacobianPoint
	evenKey.AsJacobian(&point)
	btcec.ScalarBaseMultNonConst(&scalar, &tweakPoint)
	btcec.AddNonConst(&point, &tweakPoint, &result)

	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return nil, ErrPointInfinity
	}

	result.ToAffine()
	return btcec.NewPublicKey(&result.X, &result.Y), nil
}

// TweakPrivKey is the private counterpart of TweakPubKey: the key is negated
// when its public point has an odd y before the tweak is added.
func TweakPrivKey(key *secp256k1.PrivateKey, tweak []byte) (*secp256k1.PrivateKey, error) {
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(tweak); overflow || len(tweak) != 32 {
		return nil, ErrInvalidTweak
	}

	d := key.Key
	if key.PubKey().SerializeCompressed()[0] == secp256k1.PubKeyFormatCompressedOdd {
		d.Negate()
	}
	d.Add(&scalar)
	if d.IsZero() {
		return nil, ErrPointInfinity
	}

	return secp256k1.NewPrivateKey(&d), nil
}

// CovenantTree is the taproot output committing to a compiled program.
// Stateful covenants pair the program leaf with a TapData leaf under the
// unspendable key, keyed covenants use the program as the only leaf.
type CovenantTree struct {
	Cmr         [32]byte
	InternalKey *secp256k1.PublicKey
	LeafHash    chainhash.Hash
	Sibling     *chainhash.Hash
	OutputKey   *secp256k1.PublicKey
}

func NewStatefulCovenant(cmr [32]byte, value uint64) (*CovenantTree, error) {
	sibling := TapDataHash(value)
	return newCovenantTree(cmr, UnspendableKey(), &sibling)
}

func NewKeyedCovenant(cmr [32]byte, internalKey *secp256k1.PublicKey) (*CovenantTree, error) {
	if internalKey == nil {
		return nil, fmt.Errorf("missing internal key")
	}
	return newCovenantTree(cmr, internalKey, nil)
}

func newCovenantTree(
	cmr [32]byte, internalKey *secp256k1.PublicKey, sibling *chainhash.Hash,
) (*CovenantTree, error) {
	tree := &CovenantTree{
		Cmr:         cmr,
		InternalKey: internalKey,
		LeafHash:    TapLeafHash(cmr),
		Sibling:     sibling,
	}

	root := tree.MerkleRoot()
	tweak := TapTweakHash(internalKey, root[:])
	outputKey, err := TweakPubKey(internalKey, tweak[:])
	if err != nil {
		return nil, err
	}
	tree.OutputKey = outputKey

	return tree, nil
}

func (t *CovenantTree) MerkleRoot() chainhash.Hash {
	if t.Sibling == nil {
		return t.LeafHash
	}
	return TapBranchHash(t.LeafHash, *t.Sibling)
}

// ScriptPubKey returns OP_1 <32-byte output key>.
func (t *CovenantTree) ScriptPubKey() []byte {
	script, _ := P2TRScript(t.OutputKey)
	return script
}

// ControlBlock is 33 bytes for a single leaf tree, 65 bytes otherwise.
func (t *CovenantTree) ControlBlock() []byte {
	parity := byte(0)
	if t.OutputKey.SerializeCompressed()[0] == secp256k1.PubKeyFormatCompressedOdd {
		parity = 1
	}

	ctrlBlock := make([]byte, 0, 65)
	ctrlBlock = append(ctrlBlock, SimplicityLeafVersion|parity)
	ctrlBlock = append(ctrlBlock, schnorr.SerializePubKey(t.InternalKey)...)
	if t.Sibling != nil {
		ctrlBlock = append(ctrlBlock, t.Sibling[:]...)
	}
	return ctrlBlock
}

// TapLeafScript is the pset metadata spending the program leaf.
func (t *CovenantTree) TapLeafScript() (psetv2.TapLeafScript, error) {
	ctrlBlock, err := taproot.ParseControlBlock(t.ControlBlock())
	if err != nil {
		return psetv2.TapLeafScript{}, fmt.Errorf("invalid control block: %s", err)
	}
	return psetv2.TapLeafScript{
		TapElementsLeaf: taproot.NewTapElementsLeaf(
			txscript.TapscriptLeafVersion(SimplicityLeafVersion), t.Cmr[:],
		),
		ControlBlock: *ctrlBlock,
	}, nil
}

func (t *CovenantTree) Address(net Network) (string, error) {
	return TaprootAddress(t.OutputKey, net)
}

func TaprootAddress(outputKey *secp256k1.PublicKey, net Network) (string, error) {
	p2tr, err := payment.FromTweakedKey(outputKey, net.Elements(), nil)
	if err != nil {
		return "", err
	}
	return p2tr.TaprootAddress()
}

// TaprootPreimage computes the hash for witness v1 input of a pset
// it implicitly assumes that the pset has witnessUtxo fields populated.
// leafHash is nil for key-path spends.
func TaprootPreimage(
	genesisBlockHash *chainhash.Hash,
	pset *psetv2.Pset,
	inputIndex int,
	leafHash *chainhash.Hash,
) ([]byte, error) {
	prevoutScripts := make([][]byte, 0)
	prevoutAssets := make([][]byte, 0)
	prevoutValues := make([][]byte, 0)

	for i, input := range pset.Inputs {
		if input.WitnessUtxo == nil {
			return nil, fmt.Errorf("missing witness utxo on input #%d", i)
		}

		prevoutScripts = append(prevoutScripts, input.WitnessUtxo.Script)
		prevoutAssets = append(prevoutAssets, input.WitnessUtxo.Asset)
		prevoutValues = append(prevoutValues, input.WitnessUtxo.Value)
	}

	utx, err := pset.UnsignedTx()
	if err != nil {
		return nil, err
	}

	preimage := utx.HashForWitnessV1(
		inputIndex,
		prevoutScripts,
		prevoutAssets,
		prevoutValues,
		pset.Inputs[inputIndex].SigHashType,
		genesisBlockHash,
		leafHash,
		nil,
	)
	return preimage[:], nil
}
