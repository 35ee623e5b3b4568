package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/common/order"
	"github.com/deadcat-network/deadcat/common/pool"
)

type marketParams struct {
	OraclePubKey       string         `json:"oracle_pubkey"`
	CollateralAsset    common.AssetID `json:"collateral_asset"`
	YesAsset           common.AssetID `json:"yes_asset"`
	NoAsset            common.AssetID `json:"no_asset"`
	YesReissuanceToken common.AssetID `json:"yes_reissuance_token"`
	NoReissuanceToken  common.AssetID `json:"no_reissuance_token"`
	CollateralPerToken uint64         `json:"collateral_per_token"`
	ExpiryTime         uint32         `json:"expiry_time"`
}

func (p marketParams) toParams() (market.ContractParams, error) {
	oracle, err := common.DecodeHash32(p.OraclePubKey)
	if err != nil {
		return market.ContractParams{}, fmt.Errorf("invalid oracle pubkey: %s", err)
	}
	return market.ContractParams{
		OraclePubKey:       oracle,
		CollateralAsset:    p.CollateralAsset,
		YesAsset:           p.YesAsset,
		NoAsset:            p.NoAsset,
		YesReissuanceToken: p.YesReissuanceToken,
		NoReissuanceToken:  p.NoReissuanceToken,
		CollateralPerToken: p.CollateralPerToken,
		ExpiryTime:         p.ExpiryTime,
	}, nil
}

type poolParams struct {
	YesAsset          common.AssetID `json:"yes_asset"`
	NoAsset           common.AssetID `json:"no_asset"`
	LbtcAsset         common.AssetID `json:"lbtc_asset"`
	LpAsset           common.AssetID `json:"lp_asset"`
	LpReissuanceToken common.AssetID `json:"lp_reissuance_token"`
	FeeBps            uint64         `json:"fee_bps"`
	CosignerPubKey    string         `json:"cosigner_pubkey"`
}

func (p poolParams) toParams() (pool.PoolParams, error) {
	cosigner, err := common.DecodeHash32(p.CosignerPubKey)
	if err != nil {
		return pool.PoolParams{}, fmt.Errorf("invalid cosigner pubkey: %s", err)
	}
	return pool.PoolParams{
		YesAsset:          p.YesAsset,
		NoAsset:           p.NoAsset,
		LbtcAsset:         p.LbtcAsset,
		LpAsset:           p.LpAsset,
		LpReissuanceToken: p.LpReissuanceToken,
		FeeBps:            p.FeeBps,
		CosignerPubKey:    cosigner,
	}, nil
}

type orderParams struct {
	MakerPubKey      string         `json:"maker_pubkey"`
	Nonce            string         `json:"nonce"`
	BaseAsset        common.AssetID `json:"base_asset"`
	QuoteAsset       common.AssetID `json:"quote_asset"`
	Price            uint64         `json:"price"`
	MinFillLots      uint64         `json:"min_fill_lots"`
	MinRemainderLots uint64         `json:"min_remainder_lots"`
	Direction        string         `json:"direction"`
}

func (p orderParams) toParams() (order.MakerOrderParams, error) {
	var direction order.Direction
	switch strings.ToLower(p.Direction) {
	case order.SellBase.String():
		direction = order.SellBase
	case order.SellQuote.String():
		direction = order.SellQuote
	default:
		return order.MakerOrderParams{}, fmt.Errorf(
			"invalid direction %q, must be one of %s, %s",
			p.Direction, order.SellBase, order.SellQuote,
		)
	}
	makerPubKey, err := common.DecodeHash32(p.MakerPubKey)
	if err != nil {
		return order.MakerOrderParams{}, fmt.Errorf("invalid maker pubkey: %s", err)
	}
	nonce, err := common.DecodeHash32(p.Nonce)
	if err != nil {
		return order.MakerOrderParams{}, fmt.Errorf("invalid nonce: %s", err)
	}
	return order.MakerOrderParams{
		MakerPubKey:      makerPubKey,
		Nonce:            nonce,
		BaseAsset:        p.BaseAsset,
		QuoteAsset:       p.QuoteAsset,
		Price:            p.Price,
		MinFillLots:      p.MinFillLots,
		MinRemainderLots: p.MinRemainderLots,
		Direction:        direction,
	}, nil
}

// parseParams decodes v from either an inline JSON object or the path of a
// JSON file.
func parseParams(str string, v interface{}) error {
	buf := []byte(strings.TrimSpace(str))
	if len(buf) <= 0 {
		return fmt.Errorf("missing params")
	}
	if buf[0] != '{' {
		content, err := os.ReadFile(str)
		if err != nil {
			return fmt.Errorf("failed to read params file: %s", err)
		}
		buf = content
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("invalid params: %s", err)
	}
	return nil
}
