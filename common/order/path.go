package order

import "github.com/deadcat-network/deadcat/common/covenant"

// FillPath is the witness of an order input being filled. It binds the
// input to the outputs paying the maker and re-locking the remainder.
type FillPath struct {
	MakerReceiveAmount uint64
	Remainder          uint64
	ReceiveOutput      uint32
	RemainderOutput    uint32
}

var Schema = covenant.Schema{
	"MAKER_RECEIVE_AMOUNT": covenant.TypeU64,
	"REMAINDER":            covenant.TypeU64,
	"IS_PARTIAL":           covenant.TypeBool,
	"RECEIVE_OUTPUT":       covenant.TypeU32,
	"REMAINDER_OUTPUT":     covenant.TypeU32,
}

func (p FillPath) Witness() covenant.WitnessValues {
	return covenant.WitnessValues{
		"MAKER_RECEIVE_AMOUNT": covenant.U64(p.MakerReceiveAmount),
		"REMAINDER":            covenant.U64(p.Remainder),
		"IS_PARTIAL":           covenant.Bool(p.Remainder > 0),
		"RECEIVE_OUTPUT":       covenant.U32(p.ReceiveOutput),
		"REMAINDER_OUTPUT":     covenant.U32(p.RemainderOutput),
	}
}
