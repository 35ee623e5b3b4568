package domain

import "context"

type PoolRepository interface {
	Add(ctx context.Context, p Pool) error
	Update(ctx context.Context, p Pool) error
	Get(ctx context.Context, id string) (*Pool, error)
	GetByMarket(ctx context.Context, marketId string) ([]Pool, error)
	GetAll(ctx context.Context) ([]Pool, error)
	Close()
}
