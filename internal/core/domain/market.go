package domain

import (
	"fmt"
	"time"

	"github.com/deadcat-network/deadcat/common/market"
)

// MarketMetadata is the human readable part of a market announcement.
type MarketMetadata struct {
	Question         string
	Description      string
	Category         string
	ResolutionSource string
	CreatorPubKey    string
	CreationTxid     string
}

type Market struct {
	Id          string
	Params      market.ContractParams
	Metadata    MarketMetadata
	State       market.MarketState
	AnnouncedAt int64
	UpdatedAt   int64
}

func NewMarket(params market.ContractParams, meta MarketMetadata) (*Market, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(meta.Question) <= 0 {
		return nil, fmt.Errorf("missing market question")
	}

	now := time.Now().Unix()
	return &Market{
		Id:          params.MarketId().String(),
		Params:      params,
		Metadata:    meta,
		State:       market.StateDormant,
		AnnouncedAt: now,
		UpdatedAt:   now,
	}, nil
}

// UpdateState moves the market to the state observed on chain. Several
// transitions may have happened since the last update, only a resolved
// market is final.
func (m *Market) UpdateState(state market.MarketState) error {
	if state == m.State {
		return nil
	}
	if !state.IsValid() || m.State.IsResolved() {
		return fmt.Errorf(
			"%w: %s -> %s", market.ErrInvalidState, m.State, state,
		)
	}
	m.State = state
	m.UpdatedAt = time.Now().Unix()
	return nil
}

func (m *Market) IsResolved() bool {
	return m.State.IsResolved()
}
