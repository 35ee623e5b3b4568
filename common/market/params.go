package market

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/deadcat-network/deadcat/common"
)

var (
	ErrInvalidParams          = errors.New("invalid market params")
	ErrZeroPairs              = errors.New("pairs must be greater than zero")
	ErrZeroAmount             = errors.New("amount must be greater than zero")
	ErrInsufficientCollateral = errors.New("insufficient collateral")
	ErrCollateralOverflow     = errors.New("collateral overflow")
	ErrInsufficientTokens     = errors.New("insufficient tokens")
	ErrInvalidState           = errors.New("invalid market state")
	ErrMissingReissuanceUtxos = errors.New("missing reissuance token utxos")
	ErrInvalidOracleSignature = errors.New("invalid oracle signature")
)

const marketIdTag = "deadcat/market_id"

type MarketId [32]byte

func (id MarketId) String() string {
	return hex.EncodeToString(id[:])
}

// ContractParams define a binary prediction market. YES and NO tokens are
// issued in pairs against CollateralPerToken*2 units of collateral.
type ContractParams struct {
	OraclePubKey       [32]byte
	CollateralAsset    common.AssetID
	YesAsset           common.AssetID
	NoAsset            common.AssetID
	YesReissuanceToken common.AssetID
	NoReissuanceToken  common.AssetID
	CollateralPerToken uint64
	// ExpiryTime is the block height after which unresolved tokens can be
	// redeemed without oracle attestation.
	ExpiryTime uint32
}

func (p ContractParams) Validate() error {
	if _, err := common.ParseXOnlyKey(p.OraclePubKey); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParams, err)
	}
	if p.CollateralPerToken == 0 {
		return fmt.Errorf("%w: collateral per token must be greater than zero", ErrInvalidParams)
	}
	if p.ExpiryTime == 0 {
		return fmt.Errorf("%w: missing expiry time", ErrInvalidParams)
	}

	assets := []common.AssetID{
		p.CollateralAsset, p.YesAsset, p.NoAsset, p.YesReissuanceToken, p.NoReissuanceToken,
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

	if _, err := p.PairCollateral(1); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParams, err)
	}
	return nil
}

// Encode returns the canonical serialization of the params.
func (p ContractParams) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(p.OraclePubKey[:])
	buf.Write(p.CollateralAsset[:])
	buf.Write(p.YesAsset[:])
	buf.Write(p.NoAsset[:])
	buf.Write(p.YesReissuanceToken[:])
	buf.Write(p.NoReissuanceToken[:])
	_ = binary.Write(&buf, binary.BigEndian, p.CollateralPerToken)
	_ = binary.Write(&buf, binary.BigEndian, p.ExpiryTime)
	return buf.Bytes()
}

func (p ContractParams) MarketId() MarketId {
	h := sha256.New()
	h.Write([]byte(marketIdTag))
	h.Write(p.Encode())

	var id MarketId
	copy(id[:], h.Sum(nil))
	return id
}

// PairCollateral is the collateral locked for the given number of
// YES/NO pairs.
func (p ContractParams) PairCollateral(pairs uint64) (uint64, error) {
	perPair, err := mul(p.CollateralPerToken, 2)
	if err != nil {
		return 0, err
	}
	return mul(pairs, perPair)
}

// TokenAsset returns the asset of the YES or NO token.
func (p ContractParams) TokenAsset(side Side) common.AssetID {
	if side == SideYes {
		return p.YesAsset
	}
	return p.NoAsset
}
