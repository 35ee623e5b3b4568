package common_test

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/deadcat-network/deadcat/common"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements/taproot"
)

type treeFixture struct {
	Cmr          string `json:"cmr"`
	LeafHash     string `json:"leafHash"`
	Root         string `json:"root"`
	OutputKey    string `json:"outputKey"`
	Script       string `json:"script"`
	ControlBlock string `json:"controlBlock"`
	Value        uint64 `json:"value"`
	InternalKey  string `json:"internalKey"`
}

type taprootFixtures struct {
	TaggedHash []struct {
		Tag      string `json:"tag"`
		Data     string `json:"data"`
		Expected string `json:"expected"`
	} `json:"taggedHash"`
	Stateful []treeFixture `json:"stateful"`
	Keyed    []treeFixture `json:"keyed"`
}

func parseTaprootFixtures(t *testing.T) taprootFixtures {
	buf, err := os.ReadFile("fixtures/taproot.json")
	require.NoError(t, err)

	var fixtures taprootFixtures
	require.NoError(t, json.Unmarshal(buf, &fixtures))
	return fixtures
}

func decode32(t *testing.T, str string) [32]byte {
	buf, err := hex.DecodeString(str)
	require.NoError(t, err)
	require.Len(t, buf, 32)

	var out [32]byte
	copy(out[:], buf)
	return out
}

func TestTaggedHash(t *testing.T) {
	fixtures := parseTaprootFixtures(t)

	for _, f := range fixtures.TaggedHash {
		data, err := hex.DecodeString(f.Data)
		require.NoError(t, err)

		hash := common.TaggedHash(f.Tag, data)
		require.Equal(t, f.Expected, hex.EncodeToString(hash[:]))
	}

	one := common.TapDataHash(1)
	require.Equal(t, fixtures.TaggedHash[0].Expected, hex.EncodeToString(one[:]))
}

func TestTapBranchHash(t *testing.T) {
	a := common.TapDataHash(0)
	b := common.TapLeafHash([32]byte{0x01})

	require.Equal(t, common.TapBranchHash(a, b), common.TapBranchHash(b, a))
	require.NotEqual(t, common.TapBranchHash(a, b), common.TapBranchHash(a, a))
}

func TestTapLeafHash(t *testing.T) {
	cmr := [32]byte{0xaa}
	leaf := taproot.NewTapElementsLeaf(common.SimplicityLeafVersion, cmr[:])
	require.Equal(t, leaf.TapHash(), common.TapLeafHash(cmr))
}

func TestStatefulCovenant(t *testing.T) {
	fixtures := parseTaprootFixtures(t)
	require.NotEmpty(t, fixtures.Stateful)

	scripts := make(map[string]struct{})
	for _, f := range fixtures.Stateful {
		tree, err := common.NewStatefulCovenant(decode32(t, f.Cmr), f.Value)
		require.NoError(t, err)

		root := tree.MerkleRoot()
		require.Equal(t, f.LeafHash, hex.EncodeToString(tree.LeafHash[:]))
		require.Equal(t, f.Root, hex.EncodeToString(root[:]))
		require.Equal(t, f.OutputKey, hex.EncodeToString(schnorr.SerializePubKey(tree.OutputKey)))
		require.Equal(t, f.Script, hex.EncodeToString(tree.ScriptPubKey()))
		require.Len(t, tree.ScriptPubKey(), 34)
		require.True(t, common.IsP2TRScript(tree.ScriptPubKey()))

		controlBlock := tree.ControlBlock()
		require.Len(t, controlBlock, 65)
		require.Equal(t, byte(common.SimplicityLeafVersion), controlBlock[0]&0xfe)
		require.Equal(t, f.ControlBlock, hex.EncodeToString(controlBlock))

		// the elements tweak must agree with the one computed here
		expectedKey := taproot.ComputeTaprootOutputKey(common.UnspendableKey(), root[:])
		require.Equal(
			t, schnorr.SerializePubKey(expectedKey), schnorr.SerializePubKey(tree.OutputKey),
		)

		scripts[f.Script] = struct{}{}
	}
	require.Len(t, scripts, len(fixtures.Stateful))
}

func TestKeyedCovenant(t *testing.T) {
	fixtures := parseTaprootFixtures(t)
	require.NotEmpty(t, fixtures.Keyed)

	for _, f := range fixtures.Keyed {
		internalKey, err := common.ParseXOnlyKey(decode32(t, f.InternalKey))
		require.NoError(t, err)

		tree, err := common.NewKeyedCovenant(decode32(t, f.Cmr), internalKey)
		require.NoError(t, err)
		require.Nil(t, tree.Sibling)
		require.Equal(t, tree.LeafHash, tree.MerkleRoot())
		require.Equal(t, f.OutputKey, hex.EncodeToString(schnorr.SerializePubKey(tree.OutputKey)))

		controlBlock := tree.ControlBlock()
		require.Len(t, controlBlock, 33)
		require.Equal(t, byte(common.SimplicityLeafVersion), controlBlock[0]&0xfe)
		require.Equal(t, f.ControlBlock, hex.EncodeToString(controlBlock))

		parsed, err := taproot.ParseControlBlock(controlBlock)
		require.NoError(t, err)
		require.Equal(
			t, schnorr.SerializePubKey(internalKey), schnorr.SerializePubKey(parsed.InternalKey),
		)
	}

	_, err := common.NewKeyedCovenant([32]byte{}, nil)
	require.Error(t, err)
}

func TestKeyedCovenantDistinctKeys(t *testing.T) {
	cmr := [32]byte{0xaa}
	first, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	second, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	a, err := common.NewKeyedCovenant(cmr, first.PubKey())
	require.NoError(t, err)
	b, err := common.NewKeyedCovenant(cmr, second.PubKey())
	require.NoError(t, err)
	require.NotEqual(t, a.ScriptPubKey(), b.ScriptPubKey())
}

func TestTweakPrivKey(t *testing.T) {
	for i := 0; i < 10; i++ {
		key, err := btcec.NewPrivateKey()
		require.NoError(t, err)

		tweak := chainhash.HashB([]byte{byte(i)})
		tweakedPub, err := common.TweakPubKey(key.PubKey(), tweak)
		require.NoError(t, err)
		tweakedPriv, err := common.TweakPrivKey(key, tweak)
		require.NoError(t, err)

		require.Equal(
			t,
			schnorr.SerializePubKey(tweakedPub),
			schnorr.SerializePubKey(tweakedPriv.PubKey()),
		)
	}

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	_, err = common.TweakPubKey(key.PubKey(), []byte{0x01})
	require.ErrorIs(t, err, common.ErrInvalidTweak)
}

func TestCovenantAddress(t *testing.T) {
	tree, err := common.NewStatefulCovenant([32]byte{0xaa}, 0)
	require.NoError(t, err)

	for _, net := range []common.Network{
		common.Liquid, common.LiquidTestNet, common.LiquidRegTest,
	} {
		addr, err := tree.Address(net)
		require.NoError(t, err)
		require.Contains(t, addr, net.Addr+"1p")
	}
}
