package domain

import (
	"fmt"
	"time"

	"github.com/deadcat-network/deadcat/common/pool"
)

type Pool struct {
	Id       string
	Params   pool.PoolParams
	IssuedLp uint64
	Reserves pool.Reserves
	// MarketId optionally links the pool to the market issuing its outcome
	// tokens.
	MarketId    string
	AnnouncedAt int64
	UpdatedAt   int64
}

func NewPool(params pool.PoolParams, issuedLp uint64, marketId string) (*Pool, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if issuedLp == 0 {
		return nil, fmt.Errorf("%w: issued lp must be greater than zero", pool.ErrInvalidParams)
	}

	now := time.Now().Unix()
	return &Pool{
		Id:          params.PoolId().String(),
		Params:      params,
		IssuedLp:    issuedLp,
		MarketId:    marketId,
		AnnouncedAt: now,
		UpdatedAt:   now,
	}, nil
}

// Update records the pool outputs found on chain.
func (p *Pool) Update(issuedLp uint64, reserves pool.Reserves) {
	p.IssuedLp = issuedLp
	p.Reserves = reserves
	p.UpdatedAt = time.Now().Unix()
}
