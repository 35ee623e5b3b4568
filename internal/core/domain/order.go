package domain

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/deadcat-network/deadcat/common/order"
)

type OrderStatus uint8

const (
	// OrderPending is announced but not yet seen on chain.
	OrderPending OrderStatus = iota
	OrderOpen
	OrderPartiallyFilled
	// OrderClosed is fully filled or cancelled.
	OrderClosed
)

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "pending"
	case OrderOpen:
		return "open"
	case OrderPartiallyFilled:
		return "partially_filled"
	case OrderClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

type MakerOrder struct {
	Uid         string
	Params      order.MakerOrderParams
	MakerPubKey string
	Nonce       string
	BaseAsset   string
	QuoteAsset  string
	EventRefs   []string
	Status      OrderStatus
	// InitialAmount is the amount first seen locked at the order address.
	InitialAmount uint64
	// LockedAmount is what is currently locked at the order address.
	LockedAmount uint64
	AnnouncedAt  int64
	UpdatedAt    int64
}

// NewMakerOrder binds the order params to the given maker key and nonce.
func NewMakerOrder(
	params order.MakerOrderParams, makerPubKey, nonce [32]byte, eventRefs []string,
) (*MakerOrder, error) {
	params.MakerPubKey = makerPubKey
	params.Nonce = nonce
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	return &MakerOrder{
		Uid:         params.OrderUid().String(),
		Params:      params,
		MakerPubKey: hex.EncodeToString(makerPubKey[:]),
		Nonce:       hex.EncodeToString(nonce[:]),
		BaseAsset:   params.BaseAsset.String(),
		QuoteAsset:  params.QuoteAsset.String(),
		EventRefs:   dedupRefs(nil, eventRefs),
		Status:      OrderPending,
		AnnouncedAt: now,
		UpdatedAt:   now,
	}, nil
}

func (o *MakerOrder) AddEventRefs(refs []string) {
	o.EventRefs = dedupRefs(o.EventRefs, refs)
}

// UpdateLocked records the amount found at the order address and derives
// the order status from it.
func (o *MakerOrder) UpdateLocked(amount uint64) {
	defer func() { o.UpdatedAt = time.Now().Unix() }()

	o.LockedAmount = amount
	if amount == 0 {
		if o.Status != OrderPending {
			o.Status = OrderClosed
		}
		return
	}
	if o.Status == OrderPending || o.Status == OrderClosed {
		o.InitialAmount = amount
		o.Status = OrderOpen
		return
	}
	if amount < o.InitialAmount {
		o.Status = OrderPartiallyFilled
	}
}

func (o *MakerOrder) IsOpen() bool {
	return o.Status == OrderOpen || o.Status == OrderPartiallyFilled
}

func dedupRefs(current, refs []string) []string {
	seen := make(map[string]struct{}, len(current))
	list := make([]string, 0, len(current)+len(refs))
	for _, ref := range append(current, refs...) {
		if _, ok := seen[ref]; ok || len(ref) <= 0 {
			continue
		}
		seen[ref] = struct{}{}
		list = append(list, ref)
	}
	return list
}
