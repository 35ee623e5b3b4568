package order

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/deadcat-network/deadcat/common"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	ErrInvalidParams         = errors.New("invalid order params")
	ErrZeroPrice             = errors.New("price must be greater than zero")
	ErrZeroAmount            = errors.New("amount must be greater than zero")
	ErrInsufficientFunding   = errors.New("insufficient funding")
	ErrMakerOrderOverflow    = errors.New("maker order arithmetic overflow")
	ErrConservationViolation = errors.New("order conservation violated")
	ErrPartialFillNotLast    = errors.New("only the last order of a batch can be partially filled")
	ErrEmptyFill             = errors.New("fill has no orders")
)

const (
	orderUidTag   = "deadcat/order_uid"
	orderTweakTag = "deadcat/order_tweak"
)

type Direction uint8

const (
	// SellBase offers BASE and receives QUOTE at Price per lot.
	SellBase Direction = iota
	// SellQuote offers QUOTE and receives BASE.
	SellQuote
)

func (d Direction) String() string {
	switch d {
	case SellBase:
		return "sell_base"
	case SellQuote:
		return "sell_quote"
	default:
		return fmt.Sprintf("unknown(%d)", d)
	}
}

type OrderUid [32]byte

func (u OrderUid) String() string {
	return hex.EncodeToString(u[:])
}

// MakerOrderParams define a limit order. Amounts of BASE are counted in
// lots, Price is the QUOTE amount per lot.
type MakerOrderParams struct {
	MakerPubKey      [32]byte
	Nonce            [32]byte
	BaseAsset        common.AssetID
	QuoteAsset       common.AssetID
	Price            uint64
	MinFillLots      uint64
	MinRemainderLots uint64
	Direction        Direction
}

func (p MakerOrderParams) Validate() error {
	if p.Price == 0 {
		return ErrZeroPrice
	}
	if p.Direction > SellQuote {
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidParams, p.Direction)
	}
	if _, err := common.ParseXOnlyKey(p.MakerPubKey); err != nil {
		return fmt.Errorf("%w: maker: %s", ErrInvalidParams, err)
	}
	if p.BaseAsset.IsZero() || p.QuoteAsset.IsZero() {
		return fmt.Errorf("%w: missing asset", ErrInvalidParams)
	}
	if p.BaseAsset == p.QuoteAsset {
		return fmt.Errorf("%w: base and quote assets must differ", ErrInvalidParams)
	}
	return nil
}

func (p MakerOrderParams) OrderUid() OrderUid {
	var buf bytes.Buffer
	buf.WriteString(orderUidTag)
	buf.Write(p.MakerPubKey[:])
	buf.Write(p.Nonce[:])
	buf.Write(p.BaseAsset[:])
	buf.Write(p.QuoteAsset[:])
	_ = binary.Write(&buf, binary.BigEndian, p.Price)
	_ = binary.Write(&buf, binary.BigEndian, p.MinFillLots)
	_ = binary.Write(&buf, binary.BigEndian, p.MinRemainderLots)
	buf.WriteByte(byte(p.Direction))

	return OrderUid(sha256.Sum256(buf.Bytes()))
}

func (p MakerOrderParams) OrderTweak() [32]byte {
	uid := p.OrderUid()

	h := sha256.New()
	h.Write([]byte(orderTweakTag))
	h.Write(uid[:])

	var tweak [32]byte
	copy(tweak[:], h.Sum(nil))
	return tweak
}

// MakerReceiveKey is the per-order key paid by fills.
func (p MakerOrderParams) MakerReceiveKey() (*secp256k1.PublicKey, error) {
	makerKey, err := common.ParseXOnlyKey(p.MakerPubKey)
	if err != nil {
		return nil, err
	}
	tweak := p.OrderTweak()
	return common.TweakPubKey(makerKey, tweak[:])
}

// MakerReceivePrivKey derives the private key of MakerReceiveKey.
func (p MakerOrderParams) MakerReceivePrivKey(
	makerKey *secp256k1.PrivateKey,
) (*secp256k1.PrivateKey, error) {
	tweak := p.OrderTweak()
	return common.TweakPrivKey(makerKey, tweak[:])
}

func (p MakerOrderParams) MakerReceiveScript() ([]byte, error) {
	key, err := p.MakerReceiveKey()
	if err != nil {
		return nil, err
	}
	return common.P2TRScript(key)
}

// OfferedAsset is the asset locked in the order.
func (p MakerOrderParams) OfferedAsset() common.AssetID {
	if p.Direction == SellBase {
		return p.BaseAsset
	}
	return p.QuoteAsset
}

// ReceivedAsset is the asset paid to the maker.
func (p MakerOrderParams) ReceivedAsset() common.AssetID {
	if p.Direction == SellBase {
		return p.QuoteAsset
	}
	return p.BaseAsset
}
