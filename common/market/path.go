package market

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common/covenant"
)

type PathKind uint8

const (
	PathInitialIssuance PathKind = iota
	PathSubsequentIssuance
	PathOracleResolve
	PathCancellation
	PathExpiryRedemption
	PathPostResolutionRedemption
	PathSecondaryCovenantInput
)

func (k PathKind) String() string {
	switch k {
	case PathInitialIssuance:
		return "initial_issuance"
	case PathSubsequentIssuance:
		return "subsequent_issuance"
	case PathOracleResolve:
		return "oracle_resolve"
	case PathCancellation:
		return "cancellation"
	case PathExpiryRedemption:
		return "expiry_redemption"
	case PathPostResolutionRedemption:
		return "post_resolution_redemption"
	case PathSecondaryCovenantInput:
		return "secondary_covenant_input"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// SpendingPath selects the covenant branch exercised by a transaction,
// only the fields relevant to Kind are meaningful.
type SpendingPath struct {
	Kind            PathKind
	Pairs           uint64
	Amount          uint64
	Outcome         Side
	OracleSignature [64]byte
	Full            bool
	Side            Side
	PrimaryInput    uint32
}

// Schema is the witness shape of the market covenant. Every slot is
// always provided.
var Schema = covenant.Schema{
	"PATH":          covenant.TypeU8,
	"PAIRS":         covenant.TypeU64,
	"AMOUNT":        covenant.TypeU64,
	"OUTCOME_YES":   covenant.TypeBool,
	"ORACLE_SIG":    covenant.TypeSignature,
	"FULL":          covenant.TypeBool,
	"SIDE_YES":      covenant.TypeBool,
	"PRIMARY_INPUT": covenant.TypeU32,
}

func (p SpendingPath) Witness() covenant.WitnessValues {
	return covenant.WitnessValues{
		"PATH":          covenant.U8(uint8(p.Kind)),
		"PAIRS":         covenant.U64(p.Pairs),
		"AMOUNT":        covenant.U64(p.Amount),
		"OUTCOME_YES":   covenant.Bool(p.Outcome == SideYes),
		"ORACLE_SIG":    covenant.Signature(p.OracleSignature),
		"FULL":          covenant.Bool(p.Full),
		"SIDE_YES":      covenant.Bool(p.Side == SideYes),
		"PRIMARY_INPUT": covenant.U32(p.PrimaryInput),
	}
}

// Secondary is the path of the other covenant inputs of the transaction
// whose primary covenant input is at index primary.
func Secondary(primary int) SpendingPath {
	return SpendingPath{
		Kind:         PathSecondaryCovenantInput,
		PrimaryInput: uint32(primary),
	}
}
