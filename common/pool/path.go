package pool

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common/covenant"
)

const poolInputs = 4

type PathKind uint8

const (
	PathSwap PathKind = iota
	PathLpDepositWithdraw
	PathSecondary
	// PathCreation spends no covenant input.
	PathCreation PathKind = 0xff
)

func (k PathKind) String() string {
	switch k {
	case PathSwap:
		return "swap"
	case PathLpDepositWithdraw:
		return "lp_deposit_withdraw"
	case PathSecondary:
		return "secondary"
	case PathCreation:
		return "creation"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

type SpendingPath struct {
	Kind        PathKind
	Pair        SwapPair
	Reserves    Reserves
	NewIssuedLp uint64
}

var Schema = covenant.Schema{
	"PATH":          covenant.TypeU8,
	"SWAP_PAIR":     covenant.TypeU8,
	"NEW_YES":       covenant.TypeU64,
	"NEW_NO":        covenant.TypeU64,
	"NEW_LBTC":      covenant.TypeU64,
	"NEW_ISSUED_LP": covenant.TypeU64,
}

func (p SpendingPath) Witness() covenant.WitnessValues {
	return covenant.WitnessValues{
		"PATH":          covenant.U8(uint8(p.Kind)),
		"SWAP_PAIR":     covenant.U8(uint8(p.Pair)),
		"NEW_YES":       covenant.U64(p.Reserves.Yes),
		"NEW_NO":        covenant.U64(p.Reserves.No),
		"NEW_LBTC":      covenant.U64(p.Reserves.Lbtc),
		"NEW_ISSUED_LP": covenant.U64(p.NewIssuedLp),
	}
}
