package common

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/vulpemventures/go-elements/network"
)

type Network struct {
	Name        string
	Addr        string
	GenesisHash string
}

var Liquid = Network{
	Name:        "liquid",
	Addr:        "ex",
	GenesisHash: "1466275836220db2944ca059a3a10ef6fd2ea684b0688d2c379296888a206003",
}

var LiquidTestNet = Network{
	Name:        "testnet",
	Addr:        "tex",
	GenesisHash: "a771da8e52ee6ad581ed1e9a99825e5b3b7992225534eaa2ae23244fe26ab1c1",
}

var LiquidRegTest = Network{
	Name:        "regtest",
	Addr:        "ert",
	GenesisHash: "00902a6b70c2ca83b5d9c815d96a0e2f4202179316970d14ea1847dae5b1ca21",
}

func NetworkFromString(name string) (Network, error) {
	switch name {
	case Liquid.Name:
		return Liquid, nil
	case LiquidTestNet.Name:
		return LiquidTestNet, nil
	case LiquidRegTest.Name:
		return LiquidRegTest, nil
	default:
		return Network{}, fmt.Errorf("unknown network %s", name)
	}
}

// Elements returns the go-elements parameters for the network.
func (n Network) Elements() *network.Network {
	switch n.Name {
	case LiquidTestNet.Name:
		return &network.Testnet
	case LiquidRegTest.Name:
		return &network.Regtest
	default:
		return &network.Liquid
	}
}

// PolicyAsset is the L-BTC asset of the network, used to pay fees.
func (n Network) PolicyAsset() (AssetID, error) {
	return ParseAssetID(n.Elements().AssetID)
}

func (n Network) GenesisBlockHash() (*chainhash.Hash, error) {
	return chainhash.NewHashFromStr(n.GenesisHash)
}
