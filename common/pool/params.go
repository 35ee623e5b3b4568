package pool

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/deadcat-network/deadcat/common"
)

// MaxFeeBps is the exclusive upper bound of the swap fee.
const MaxFeeBps = 10000

var (
	ErrInvalidParams       = errors.New("invalid pool params")
	ErrInvalidFeeBps       = errors.New("fee bps must be lower than 10000")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrInsufficientFunding = errors.New("insufficient funding")
	ErrInvariantViolation  = errors.New("constant product invariant violated")
	ErrInvalidSwap         = errors.New("invalid swap")
	ErrInvalidLpBurn       = errors.New("invalid lp burn amount")
	ErrInsufficientReserve = errors.New("insufficient reserve")
)

type PoolId [32]byte

func (id PoolId) String() string {
	return hex.EncodeToString(id[:])
}

// PoolParams define an AMM pool over the YES/NO tokens of a market and
// L-BTC. LP shares are represented by LpAsset, minted through the
// reissuance token locked in the pool.
type PoolParams struct {
	YesAsset          common.AssetID
	NoAsset           common.AssetID
	LbtcAsset         common.AssetID
	LpAsset           common.AssetID
	LpReissuanceToken common.AssetID
	FeeBps            uint64
	CosignerPubKey    [32]byte
}

func (p PoolParams) Validate() error {
	if p.FeeBps >= MaxFeeBps {
		return fmt.Errorf("%w: got %d", ErrInvalidFeeBps, p.FeeBps)
	}
	if _, err := common.ParseXOnlyKey(p.CosignerPubKey); err != nil {
		return fmt.Errorf("%w: cosigner: %s", ErrInvalidParams, err)
	}

	assets := []common.AssetID{
		p.YesAsset, p.NoAsset, p.LbtcAsset, p.LpAsset, p.LpReissuanceToken,
	}
	seen := make(map[common.AssetID]struct{}, len(assets))
	for _, asset := range assets {
		if asset.IsZero() {
			return fmt.Errorf("%w: missing asset", ErrInvalidParams)
		}
		if _, ok := seen[asset]; ok {
			return fmt.Errorf("%w: duplicated asset %s", ErrInvalidParams, asset)
		}
		seen[asset] = struct{}{}
	}
	return nil
}

func (p PoolParams) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(p.YesAsset[:])
	buf.Write(p.NoAsset[:])
	buf.Write(p.LbtcAsset[:])
	buf.Write(p.LpAsset[:])
	buf.Write(p.LpReissuanceToken[:])
	_ = binary.Write(&buf, binary.BigEndian, p.FeeBps)
	buf.Write(p.CosignerPubKey[:])
	return buf.Bytes()
}

// PoolId is SHA256 of the canonical encoding, without domain tag.
func (p PoolParams) PoolId() PoolId {
	return PoolId(sha256.Sum256(p.Encode()))
}

func (p PoolParams) asset(r Reserve) common.AssetID {
	switch r {
	case ReserveYes:
		return p.YesAsset
	case ReserveNo:
		return p.NoAsset
	default:
		return p.LbtcAsset
	}
}
