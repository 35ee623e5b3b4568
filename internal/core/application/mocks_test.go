package application_test

import (
	"context"

	"github.com/deadcat-network/deadcat/common"
	"github.com/stretchr/testify/mock"
	"github.com/vulpemventures/go-elements/transaction"
)

type mockedChainSource struct {
	mock.Mock
}

func (m *mockedChainSource) BestHeight(ctx context.Context) (uint32, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *mockedChainSource) ListUnspent(
	ctx context.Context, script []byte,
) ([]common.UnblindedUtxo, error) {
	args := m.Called(ctx, script)

	var res []common.UnblindedUtxo
	if a := args.Get(0); a != nil {
		res = a.([]common.UnblindedUtxo)
	}
	return res, args.Error(1)
}

func (m *mockedChainSource) IsSpent(ctx context.Context, outpoint common.Outpoint) (bool, error) {
	args := m.Called(ctx, outpoint)
	return args.Bool(0), args.Error(1)
}

func (m *mockedChainSource) GetTransaction(
	ctx context.Context, txid string,
) (*transaction.Transaction, error) {
	args := m.Called(ctx, txid)

	var res *transaction.Transaction
	if a := args.Get(0); a != nil {
		res = a.(*transaction.Transaction)
	}
	return res, args.Error(1)
}

func (m *mockedChainSource) Broadcast(ctx context.Context, txHex string) (string, error) {
	args := m.Called(ctx, txHex)
	return args.String(0), args.Error(1)
}
