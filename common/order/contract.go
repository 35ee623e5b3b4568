package order

import (
	"crypto/sha256"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
)

const Template = covenant.Template("maker_order")

// CompiledOrder is the order covenant, locked under the maker base key so
// that the maker can cancel with a key-path spend.
type CompiledOrder struct {
	Params   MakerOrderParams
	Compiled *covenant.Compiled

	engine        covenant.Engine
	tree          *common.CovenantTree
	receiveScript []byte
}

func Compile(engine covenant.Engine, params MakerOrderParams) (*CompiledOrder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	receiveScript, err := params.MakerReceiveScript()
	if err != nil {
		return nil, err
	}

	compiled, err := covenant.Compile(engine, Template, covenant.Arguments{
		"BASE_ASSET":             covenant.U256(params.BaseAsset),
		"QUOTE_ASSET":            covenant.U256(params.QuoteAsset),
		"PRICE":                  covenant.U64(params.Price),
		"MIN_FILL_LOTS":          covenant.U64(params.MinFillLots),
		"MIN_REMAINDER_LOTS":     covenant.U64(params.MinRemainderLots),
		"DIRECTION":              covenant.U8(uint8(params.Direction)),
		"MAKER_RECEIVE_SPK_HASH": covenant.U256(sha256.Sum256(receiveScript)),
	})
	if err != nil {
		return nil, err
	}

	makerKey, err := common.ParseXOnlyKey(params.MakerPubKey)
	if err != nil {
		return nil, err
	}
	tree, err := common.NewKeyedCovenant(compiled.Cmr, makerKey)
	if err != nil {
		return nil, err
	}

	return &CompiledOrder{
		Params:        params,
		Compiled:      compiled,
		engine:        engine,
		tree:          tree,
		receiveScript: receiveScript,
	}, nil
}

func (o *CompiledOrder) Cmr() [32]byte {
	return o.Compiled.Cmr
}

func (o *CompiledOrder) OrderUid() OrderUid {
	return o.Params.OrderUid()
}

func (o *CompiledOrder) Tree() *common.CovenantTree {
	return o.tree
}

func (o *CompiledOrder) ScriptPubKey() []byte {
	return o.tree.ScriptPubKey()
}

func (o *CompiledOrder) ControlBlock() []byte {
	return o.tree.ControlBlock()
}

func (o *CompiledOrder) Address(net common.Network) (string, error) {
	return o.tree.Address(net)
}

func (o *CompiledOrder) MakerReceiveScript() []byte {
	return append([]byte{}, o.receiveScript...)
}
