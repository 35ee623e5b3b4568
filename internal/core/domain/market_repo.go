package domain

import (
	"context"

	"github.com/deadcat-network/deadcat/common/market"
)

type MarketRepository interface {
	Add(ctx context.Context, m Market) error
	Update(ctx context.Context, m Market) error
	Get(ctx context.Context, id string) (*Market, error)
	GetByState(ctx context.Context, state market.MarketState) ([]Market, error)
	GetAll(ctx context.Context) ([]Market, error)
	Close()
}
