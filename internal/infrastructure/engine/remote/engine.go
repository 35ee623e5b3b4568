// Package remote talks to an external program-commitment engine exposing
// compile and satisfy over HTTP/JSON.
package remote

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deadcat-network/deadcat/common/covenant"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

var ErrUnknownProgram = errors.New("program was not compiled by the remote engine")

type program struct {
	bytes []byte
	cmr   [32]byte
}

func (p *program) Cmr() [32]byte {
	return p.cmr
}

type satisfied struct {
	program []byte
	witness []byte
	cost    uint64
}

func (s *satisfied) Encode() ([]byte, []byte, error) {
	return s.program, s.witness, nil
}

func (s *satisfied) Cost() uint64 {
	return s.cost
}

type engine struct {
	url    string
	client *http.Client
}

func NewEngine(url string, client *http.Client) (covenant.Engine, error) {
	if len(url) <= 0 {
		return nil, fmt.Errorf("missing engine url")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &engine{strings.TrimSuffix(url, "/"), client}, nil
}

func (e *engine) Compile(
	template covenant.Template, args covenant.Arguments,
) (covenant.Program, error) {
	req := compileRequest{
		Template:  string(template),
		Arguments: toValues(args),
	}
	var resp compileResponse
	if err := e.post("/v1/compile", req, &resp); err != nil {
		return nil, err
	}

	programBytes, err := hex.DecodeString(resp.Program)
	if err != nil {
		return nil, fmt.Errorf("invalid program: %s", err)
	}
	cmrBytes, err := hex.DecodeString(resp.Cmr)
	if err != nil || len(cmrBytes) != 32 {
		return nil, fmt.Errorf("invalid cmr %q", resp.Cmr)
	}

	p := &program{bytes: programBytes}
	copy(p.cmr[:], cmrBytes)

	log.WithFields(log.Fields{
		"template": template,
		"cmr":      resp.Cmr,
	}).Debug("compiled program")
	return p, nil
}

func (e *engine) Satisfy(
	prog covenant.Program, witness covenant.WitnessValues, env *covenant.Env,
) (covenant.SatisfiedProgram, error) {
	p, ok := prog.(*program)
	if !ok {
		return nil, ErrUnknownProgram
	}
	reqEnv, err := toEnv(env)
	if err != nil {
		return nil, err
	}

	req := satisfyRequest{
		Program: hex.EncodeToString(p.bytes),
		Witness: toValues(witness),
		Env:     reqEnv,
	}
	var resp satisfyResponse
	if err := e.post("/v1/satisfy", req, &resp); err != nil {
		return nil, err
	}

	programBytes, err := hex.DecodeString(resp.Program)
	if err != nil {
		return nil, fmt.Errorf("invalid satisfied program: %s", err)
	}
	witnessBytes, err := hex.DecodeString(resp.Witness)
	if err != nil {
		return nil, fmt.Errorf("invalid witness: %s", err)
	}
	return &satisfied{programBytes, witnessBytes, resp.Cost}, nil
}

func (e *engine) post(path string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpResp, err := e.client.Post(e.url+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return err
	}
	if httpResp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && len(errResp.Error) > 0 {
			return errors.New(errResp.Error)
		}
		return fmt.Errorf("engine %s: %s", path, strings.TrimSpace(string(respBody)))
	}
	return json.Unmarshal(respBody, resp)
}
