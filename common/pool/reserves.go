package pool

import (
	"fmt"
	"math/bits"

	"github.com/deadcat-network/deadcat/common/txutils"
)

type Reserve uint8

const (
	ReserveYes Reserve = iota
	ReserveNo
	ReserveLbtc
)

func (r Reserve) String() string {
	switch r {
	case ReserveYes:
		return "yes"
	case ReserveNo:
		return "no"
	case ReserveLbtc:
		return "lbtc"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

type SwapPair uint8

const (
	SwapYesNo SwapPair = iota
	SwapYesLbtc
	SwapNoLbtc
)

func (p SwapPair) String() string {
	a, b := p.Reserves()
	return fmt.Sprintf("%s/%s", a, b)
}

func (p SwapPair) Reserves() (Reserve, Reserve) {
	switch p {
	case SwapYesNo:
		return ReserveYes, ReserveNo
	case SwapYesLbtc:
		return ReserveYes, ReserveLbtc
	default:
		return ReserveNo, ReserveLbtc
	}
}

func (p SwapPair) IsValid() bool {
	return p <= SwapNoLbtc
}

type Reserves struct {
	Yes  uint64
	No   uint64
	Lbtc uint64
}

func (r Reserves) Get(reserve Reserve) uint64 {
	switch reserve {
	case ReserveYes:
		return r.Yes
	case ReserveNo:
		return r.No
	default:
		return r.Lbtc
	}
}

func (r Reserves) with(reserve Reserve, value uint64) Reserves {
	switch reserve {
	case ReserveYes:
		r.Yes = value
	case ReserveNo:
		r.No = value
	default:
		r.Lbtc = value
	}
	return r
}

func (r Reserves) IsZero() bool {
	return r.Yes == 0 || r.No == 0 || r.Lbtc == 0
}

// SwapQuote is the outcome of selling AmountIn of In for AmountOut of Out.
type SwapQuote struct {
	Pair      SwapPair
	In        Reserve
	Out       Reserve
	AmountIn  uint64
	AmountOut uint64
	Reserves  Reserves
}

// QuoteSwap computes the constant product output of selling amountIn of
// reserve in. The fee is kept in the pool.
func QuoteSwap(
	reserves Reserves, pair SwapPair, in Reserve, amountIn, feeBps uint64,
) (*SwapQuote, error) {
	if !pair.IsValid() {
		return nil, fmt.Errorf("%w: unknown pair %d", ErrInvalidSwap, pair)
	}
	if feeBps >= MaxFeeBps {
		return nil, ErrInvalidFeeBps
	}
	if amountIn == 0 {
		return nil, ErrZeroAmount
	}

	a, b := pair.Reserves()
	out := b
	switch in {
	case a:
	case b:
		out = a
	default:
		return nil, fmt.Errorf("%w: %s is not part of pair %s", ErrInvalidSwap, in, pair)
	}

	reserveIn, reserveOut := reserves.Get(in), reserves.Get(out)
	if reserveIn == 0 || reserveOut == 0 {
		return nil, fmt.Errorf("%w: empty %s reserve", ErrInsufficientReserve, pair)
	}

	effectiveIn, err := txutils.MulDiv(amountIn, MaxFeeBps-feeBps, MaxFeeBps)
	if err != nil {
		return nil, err
	}
	newReserveIn, err := txutils.Add64(reserveIn, amountIn)
	if err != nil {
		return nil, err
	}
	denominator, err := txutils.Add64(reserveIn, effectiveIn)
	if err != nil {
		return nil, err
	}
	amountOut, err := txutils.MulDiv(reserveOut, effectiveIn, denominator)
	if err != nil {
		return nil, err
	}
	if amountOut == 0 {
		return nil, fmt.Errorf("%w: output rounds to zero", ErrInvalidSwap)
	}

	return &SwapQuote{
		Pair:      pair,
		In:        in,
		Out:       out,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Reserves:  reserves.with(in, newReserveIn).with(out, reserveOut-amountOut),
	}, nil
}

// inferSwap finds which reserve of the pair increased and checks the third
// one is untouched.
func inferSwap(pair SwapPair, old, next Reserves) (*SwapQuote, error) {
	if !pair.IsValid() {
		return nil, fmt.Errorf("%w: unknown pair %d", ErrInvalidSwap, pair)
	}

	a, b := pair.Reserves()
	for _, r := range []Reserve{ReserveYes, ReserveNo, ReserveLbtc} {
		if r != a && r != b && old.Get(r) != next.Get(r) {
			return nil, fmt.Errorf("%w: %s reserve is not part of pair %s", ErrInvalidSwap, r, pair)
		}
	}

	in, out := a, b
	if next.Get(a) < old.Get(a) {
		in, out = b, a
	}
	if next.Get(in) <= old.Get(in) || next.Get(out) >= old.Get(out) {
		return nil, fmt.Errorf(
			"%w: one reserve of %s must increase and the other decrease", ErrInvalidSwap, pair,
		)
	}

	return &SwapQuote{
		Pair:      pair,
		In:        in,
		Out:       out,
		AmountIn:  next.Get(in) - old.Get(in),
		AmountOut: old.Get(out) - next.Get(out),
		Reserves:  next,
	}, nil
}

// checkInvariant verifies that the product of the pair reserves does not
// decrease once the fee is deducted from the deposited amount.
func checkInvariant(old Reserves, swap *SwapQuote, feeBps uint64) error {
	effectiveIn, err := txutils.MulDiv(swap.AmountIn, MaxFeeBps-feeBps, MaxFeeBps)
	if err != nil {
		return err
	}
	reserveIn, err := txutils.Add64(old.Get(swap.In), effectiveIn)
	if err != nil {
		return err
	}

	if !productGte(reserveIn, swap.Reserves.Get(swap.Out), old.Get(swap.In), old.Get(swap.Out)) {
		return fmt.Errorf(
			"%w: %s in %d, out %d", ErrInvariantViolation, swap.Pair, swap.AmountIn, swap.AmountOut,
		)
	}
	return nil
}

// productGte reports whether a*b >= c*d using 128-bit products.
func productGte(a, b, c, d uint64) bool {
	hi1, lo1 := bits.Mul64(a, b)
	hi2, lo2 := bits.Mul64(c, d)
	if hi1 != hi2 {
		return hi1 > hi2
	}
	return lo1 >= lo2
}

// ComputeLpMint returns the LP shares minted for a deposit, proportional to
// the smallest relative contribution across the three reserves.
func ComputeLpMint(reserves Reserves, issuedLp uint64, deposit Reserves) (uint64, error) {
	if reserves.IsZero() || issuedLp == 0 {
		return 0, fmt.Errorf("%w: empty pool", ErrInsufficientReserve)
	}

	mint := uint64(0)
	for i, r := range []Reserve{ReserveYes, ReserveNo, ReserveLbtc} {
		share, err := txutils.MulDiv(deposit.Get(r), issuedLp, reserves.Get(r))
		if err != nil {
			return 0, err
		}
		if i == 0 || share < mint {
			mint = share
		}
	}
	if mint == 0 {
		return 0, fmt.Errorf("%w: deposit mints no lp shares", ErrZeroAmount)
	}
	return mint, nil
}

// ComputeLpWithdraw returns the reserves left after burning lpBurn shares.
// The payout of each reserve is the difference with the current ones.
func ComputeLpWithdraw(reserves Reserves, issuedLp, lpBurn uint64) (Reserves, error) {
	if lpBurn == 0 || lpBurn >= issuedLp {
		return Reserves{}, fmt.Errorf(
			"%w: burn %d, issued %d", ErrInvalidLpBurn, lpBurn, issuedLp,
		)
	}

	remaining := reserves
	for _, r := range []Reserve{ReserveYes, ReserveNo, ReserveLbtc} {
		payout, err := txutils.MulDiv(reserves.Get(r), lpBurn, issuedLp)
		if err != nil {
			return Reserves{}, err
		}
		if payout == 0 {
			return Reserves{}, fmt.Errorf("%w: %s payout rounds to zero", ErrZeroAmount, r)
		}
		remaining = remaining.with(r, reserves.Get(r)-payout)
	}
	return remaining, nil
}
