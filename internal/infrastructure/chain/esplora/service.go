package esplora

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/go-elements/transaction"
)

const defaultTimeout = 15 * time.Second

type service struct {
	baseUrl string
	client  *http.Client

	lock  *sync.RWMutex
	cache map[string]string
}

// NewService returns a chain source backed by an Esplora REST API. The
// same http client is shared by all callers.
func NewService(baseUrl string, client *http.Client) (ports.ChainSource, error) {
	if len(baseUrl) <= 0 {
		return nil, fmt.Errorf("missing esplora url")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &service{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		client:  client,
		lock:    &sync.RWMutex{},
		cache:   make(map[string]string),
	}, nil
}

func (s *service) BestHeight(ctx context.Context) (uint32, error) {
	body, err := s.get(ctx, "/blocks/tip/height")
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid block height: %s", err)
	}
	return uint32(height), nil
}

func (s *service) ListUnspent(
	ctx context.Context, script []byte,
) ([]common.UnblindedUtxo, error) {
	scriptHash := sha256.Sum256(script)
	body, err := s.get(ctx, fmt.Sprintf("/scripthash/%x/utxo", scriptHash[:]))
	if err != nil {
		return nil, err
	}

	payload := make([]utxo, 0)
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	utxos := make([]common.UnblindedUtxo, 0, len(payload))
	for _, u := range payload {
		outpoint := common.Outpoint{Txid: u.Txid, Vout: u.Vout}
		if u.isConfidential() {
			log.WithField("outpoint", outpoint).Debug("skipping confidential utxo")
			continue
		}

		asset, err := common.ParseAssetID(u.Asset)
		if err != nil {
			return nil, fmt.Errorf("utxo %s: %s", outpoint, err)
		}
		unblinded, err := common.NewExplicitUtxo(outpoint, asset, u.Value, script)
		if err != nil {
			return nil, fmt.Errorf("utxo %s: %s", outpoint, err)
		}
		utxos = append(utxos, unblinded)
	}
	return utxos, nil
}

func (s *service) IsSpent(ctx context.Context, outpoint common.Outpoint) (bool, error) {
	body, err := s.get(ctx, fmt.Sprintf("/tx/%s/outspend/%d", outpoint.Txid, outpoint.Vout))
	if err != nil {
		return false, err
	}

	var status spentStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return false, err
	}
	return status.Spent, nil
}

func (s *service) GetTransaction(
	ctx context.Context, txid string,
) (*transaction.Transaction, error) {
	txHex, err := s.getTxHex(ctx, txid)
	if err != nil {
		return nil, err
	}
	return transaction.NewTxFromHex(txHex)
}

func (s *service) Broadcast(ctx context.Context, txHex string) (string, error) {
	tx, err := transaction.NewTxFromHex(txHex)
	if err != nil {
		return "", fmt.Errorf("invalid transaction: %s", err)
	}
	txid := tx.TxHash().String()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.baseUrl+"/tx", bytes.NewBufferString(txHex),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	body, err := s.do(req)
	if err != nil {
		if strings.Contains(
			strings.ToLower(err.Error()), "transaction already in block chain",
		) {
			return txid, nil
		}
		return "", err
	}

	s.lock.Lock()
	s.cache[txid] = txHex
	s.lock.Unlock()

	return strings.TrimSpace(string(body)), nil
}

func (s *service) getTxHex(ctx context.Context, txid string) (string, error) {
	s.lock.RLock()
	txHex, ok := s.cache[txid]
	s.lock.RUnlock()
	if ok {
		return txHex, nil
	}

	body, err := s.get(ctx, fmt.Sprintf("/tx/%s/hex", txid))
	if err != nil {
		return "", err
	}
	txHex = strings.TrimSpace(string(body))
	if _, err := hex.DecodeString(txHex); err != nil {
		return "", fmt.Errorf("invalid tx hex for %s: %s", txid, err)
	}

	s.lock.Lock()
	s.cache[txid] = txHex
	s.lock.Unlock()
	return txHex, nil
}

func (s *service) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseUrl+path, nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

func (s *service) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"esplora %s %s: %s", req.Method, req.URL.Path, strings.TrimSpace(string(body)),
		)
	}
	return body, nil
}
