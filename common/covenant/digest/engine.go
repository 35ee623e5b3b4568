// Package digest is a deterministic stand-in for the program-commitment
// engine. Programs are identified by a tagged hash over their template and
// arguments, satisfaction only checks the witness encoding and the
// execution environment. It never evaluates covenant logic and is meant
// for regtest and tests.
package digest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/deadcat-network/deadcat/common/covenant"
)

const (
	tagCmr      = "deadcat/digest/cmr"
	costPerByte = 250
)

var (
	ErrUnknownProgram = errors.New("program was not compiled by the digest engine")
	ErrEmptyTemplate  = errors.New("empty template")
)

type program struct {
	template covenant.Template
	args     []byte
	cmr      [32]byte
}

func (p *program) Cmr() [32]byte {
	return p.cmr
}

func (p *program) encode() []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarString(&buf, 0, string(p.template))
	_ = wire.WriteVarBytes(&buf, 0, p.args)
	return buf.Bytes()
}

type satisfied struct {
	program []byte
	witness []byte
}

func (s *satisfied) Encode() ([]byte, []byte, error) {
	return s.program, s.witness, nil
}

func (s *satisfied) Cost() uint64 {
	return uint64(len(s.program)+len(s.witness)) * costPerByte
}

type engine struct{}

func NewEngine() covenant.Engine {
	return engine{}
}

func (engine) Compile(
	template covenant.Template, args covenant.Arguments,
) (covenant.Program, error) {
	if len(template) == 0 {
		return nil, ErrEmptyTemplate
	}

	p := &program{
		template: template,
		args:     args.Encode(),
	}
	p.cmr = *chainhash.TaggedHash([]byte(tagCmr), p.encode())
	return p, nil
}

func (engine) Satisfy(
	prog covenant.Program, witness covenant.WitnessValues, env *covenant.Env,
) (covenant.SatisfiedProgram, error) {
	p, ok := prog.(*program)
	if !ok {
		return nil, ErrUnknownProgram
	}

	if env != nil {
		if env.Tx == nil {
			return nil, fmt.Errorf("missing transaction in environment")
		}
		if int(env.InputIndex) >= len(env.Tx.Inputs) {
			return nil, fmt.Errorf("input index %d out of range", env.InputIndex)
		}
		if len(env.Utxos) != len(env.Tx.Inputs) {
			return nil, fmt.Errorf(
				"got %d utxos for %d inputs", len(env.Utxos), len(env.Tx.Inputs),
			)
		}
	}

	return &satisfied{
		program: p.encode(),
		witness: witness.Encode(),
	}, nil
}
