package market

import "fmt"

type MarketState uint8

const (
	StateDormant MarketState = iota
	StateUnresolved
	StateResolvedYes
	StateResolvedNo
)

var States = []MarketState{StateDormant, StateUnresolved, StateResolvedYes, StateResolvedNo}

func (s MarketState) String() string {
	switch s {
	case StateDormant:
		return "dormant"
	case StateUnresolved:
		return "unresolved"
	case StateResolvedYes:
		return "resolved_yes"
	case StateResolvedNo:
		return "resolved_no"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

func (s MarketState) IsValid() bool {
	return s <= StateResolvedNo
}

func (s MarketState) IsResolved() bool {
	return s == StateResolvedYes || s == StateResolvedNo
}

// CanTransition reports whether the covenant allows moving from s to next.
func (s MarketState) CanTransition(next MarketState) bool {
	switch s {
	case StateDormant:
		return next == StateUnresolved
	case StateUnresolved:
		return next == StateDormant || next == StateUnresolved || next.IsResolved()
	default:
		return s == next
	}
}

// Side is one of the two outcome tokens.
type Side bool

const (
	SideYes Side = true
	SideNo  Side = false
)

func (s Side) String() string {
	if s == SideYes {
		return "yes"
	}
	return "no"
}

// ResolvedState returns the terminal state for the winning side.
func (s Side) ResolvedState() MarketState {
	if s == SideYes {
		return StateResolvedYes
	}
	return StateResolvedNo
}

// WinningSide is only meaningful for resolved states.
func (s MarketState) WinningSide() Side {
	return Side(s == StateResolvedYes)
}
