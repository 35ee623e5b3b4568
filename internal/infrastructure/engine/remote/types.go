package remote

import (
	"encoding/hex"
	"fmt"

	"github.com/deadcat-network/deadcat/common/covenant"
)

type value struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type compileRequest struct {
	Template  string           `json:"template"`
	Arguments map[string]value `json:"arguments"`
}

type compileResponse struct {
	Program string `json:"program"`
	Cmr     string `json:"cmr"`
}

type utxo struct {
	Asset  string `json:"asset"`
	Value  string `json:"value"`
	Script string `json:"script"`
}

type env struct {
	Tx           string `json:"tx"`
	InputIndex   uint32 `json:"input_index"`
	Utxos        []utxo `json:"utxos"`
	ControlBlock string `json:"control_block"`
	GenesisHash  string `json:"genesis_hash"`
}

type satisfyRequest struct {
	Program string           `json:"program"`
	Witness map[string]value `json:"witness"`
	Env     *env             `json:"env,omitempty"`
}

type satisfyResponse struct {
	Program string `json:"program"`
	Witness string `json:"witness"`
	Cost    uint64 `json:"cost"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toValues(values map[string]covenant.Value) map[string]value {
	out := make(map[string]value, len(values))
	for name, v := range values {
		out[name] = value{
			Type:  v.Type.String(),
			Value: hex.EncodeToString(v.Bytes),
		}
	}
	return out
}

func toEnv(e *covenant.Env) (*env, error) {
	if e == nil {
		return nil, nil
	}
	if e.Tx == nil {
		return nil, fmt.Errorf("missing transaction in environment")
	}

	txHex, err := e.Tx.ToHex()
	if err != nil {
		return nil, err
	}
	utxos := make([]utxo, 0, len(e.Utxos))
	for _, u := range e.Utxos {
		utxos = append(utxos, utxo{
			Asset:  hex.EncodeToString(u.Asset),
			Value:  hex.EncodeToString(u.Value),
			Script: hex.EncodeToString(u.Script),
		})
	}
	return &env{
		Tx:           txHex,
		InputIndex:   e.InputIndex,
		Utxos:        utxos,
		ControlBlock: hex.EncodeToString(e.ControlBlock),
		GenesisHash:  hex.EncodeToString(e.GenesisHash[:]),
	}, nil
}
