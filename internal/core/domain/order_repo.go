package domain

import "context"

type MakerOrderRepository interface {
	Add(ctx context.Context, o MakerOrder) error
	Update(ctx context.Context, o MakerOrder) error
	Get(ctx context.Context, uid string) (*MakerOrder, error)
	GetOpen(ctx context.Context) ([]MakerOrder, error)
	GetByAssets(ctx context.Context, base, quote string) ([]MakerOrder, error)
	Close()
}
