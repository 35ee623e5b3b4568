package ports

import (
	"context"

	"github.com/deadcat-network/deadcat/common"
	"github.com/vulpemventures/go-elements/transaction"
)

// ChainSource gives access to the ledger. ListUnspent only returns outputs
// with explicit asset and value, confidential ones are skipped.
type ChainSource interface {
	BestHeight(ctx context.Context) (uint32, error)
	ListUnspent(ctx context.Context, script []byte) ([]common.UnblindedUtxo, error)
	IsSpent(ctx context.Context, outpoint common.Outpoint) (bool, error)
	GetTransaction(ctx context.Context, txid string) (*transaction.Transaction, error)
	Broadcast(ctx context.Context, txHex string) (string, error)
}
