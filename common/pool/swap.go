package pool

import (
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/txutils"
)

// SwapParams trade against the pool. The traded direction is inferred from
// NewReserves: the reserve that increases is paid by TraderUtxo, the one
// that decreases is sent to ReceiveScript.
type SwapParams struct {
	Pool               PoolUtxos
	IssuedLp           uint64
	Pair               SwapPair
	NewReserves        Reserves
	TraderUtxo         *common.UnblindedUtxo
	ReceiveScript      []byte
	TraderChangeScript []byte
	Fee                txutils.Fee
	TokenBlindingKey   []byte
}

// BuildSwap keeps the pool at the same address.
//
// Inputs: [yes, no, lbtc, lp reissuance token, trader, fee]
// Outputs: [yes, no, lbtc, lp reissuance token, receive, fee, trader change, fee change]
func (p *CompiledPool) BuildSwap(s SwapParams) (*Transaction, error) {
	if err := p.validatePoolUtxos(s.Pool, s.IssuedLp); err != nil {
		return nil, err
	}
	if len(s.ReceiveScript) == 0 {
		return nil, fmt.Errorf("missing receive destination")
	}

	old := s.Pool.Reserves()
	swap, err := inferSwap(s.Pair, old, s.NewReserves)
	if err != nil {
		return nil, err
	}
	if err := checkInvariant(old, swap, p.Params.FeeBps); err != nil {
		return nil, err
	}

	traderChange, err := fundingChange(
		s.TraderUtxo, p.Params.asset(swap.In), swap.AmountIn, "trader "+swap.In.String(),
	)
	if err != nil {
		return nil, err
	}
	traderChange.Script = s.TraderChangeScript

	feeChange, err := s.Fee.Change()
	if err != nil {
		return nil, err
	}

	outputs, err := p.poolOutputs(
		s.NewReserves, s.Pool.LpToken, s.IssuedLp, s.TokenBlindingKey, poolInputs+1,
	)
	if err != nil {
		return nil, err
	}
	outputs = append(
		outputs,
		txutils.Output(p.Params.asset(swap.Out), swap.AmountOut, s.ReceiveScript),
		s.Fee.Output(),
	)
	changes, err := txutils.ChangeOutputs(traderChange, feeChange)
	if err != nil {
		return nil, err
	}

	updater, err := txutils.NewPset(0)
	if err != nil {
		return nil, err
	}
	if err := p.addInputs(
		updater, s.Pool, s.IssuedLp, s.TraderUtxo, s.Fee.Utxo,
	); err != nil {
		return nil, err
	}
	if err := updater.AddOutputs(append(outputs, changes...)); err != nil {
		return nil, err
	}

	return &Transaction{
		Pset: updater.Pset,
		Path: SpendingPath{
			Kind:        PathSwap,
			Pair:        s.Pair,
			Reserves:    s.NewReserves,
			NewIssuedLp: s.IssuedLp,
		},
		IssuedLp: s.IssuedLp,
	}, nil
}

// NewSwapParams fills pair and post-swap reserves from a quote.
func NewSwapParams(pool PoolUtxos, issuedLp uint64, quote *SwapQuote) SwapParams {
	return SwapParams{
		Pool:        pool,
		IssuedLp:    issuedLp,
		Pair:        quote.Pair,
		NewReserves: quote.Reserves,
	}
}
