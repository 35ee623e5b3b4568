package esplora

type utxo struct {
	Txid            string `json:"txid"`
	Vout            uint32 `json:"vout"`
	Value           uint64 `json:"value"`
	Asset           string `json:"asset,omitempty"`
	ValueCommitment string `json:"valuecommitment,omitempty"`
	AssetCommitment string `json:"assetcommitment,omitempty"`
	Status          struct {
		Confirmed   bool   `json:"confirmed"`
		BlockHeight uint32 `json:"block_height"`
		Blocktime   int64  `json:"block_time"`
	} `json:"status"`
}

func (u utxo) isConfidential() bool {
	return len(u.Asset) <= 0 || len(u.ValueCommitment) > 0
}

type spentStatus struct {
	Spent   bool   `json:"spent"`
	SpentBy string `json:"txid,omitempty"`
}
