package covenant

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/vulpemventures/go-elements/psetv2"
)

var (
	ErrWitness               = errors.New("witness satisfaction failed")
	ErrWitnessBudgetExceeded = errors.New("program cost exceeds witness budget")
)

// budgetOverhead is the free allowance, in weight units, every script-path
// spend gets on top of its own witness weight.
const budgetOverhead = 50

type Satisfaction struct {
	Program []byte
	Witness []byte
	Cost    uint64
}

func Satisfy(
	engine Engine, compiled *Compiled, witness WitnessValues, env *Env,
) (*Satisfaction, error) {
	if compiled == nil {
		return nil, fmt.Errorf("%w: missing compiled program", ErrWitness)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: missing engine", ErrWitness)
	}

	satisfied, err := engine.Satisfy(compiled.Program, witness, env)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWitness, err)
	}
	if satisfied == nil {
		return nil, fmt.Errorf("%w: engine returned no satisfied program", ErrWitness)
	}

	program, witnessBytes, err := satisfied.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode program: %s", ErrWitness, err)
	}

	return &Satisfaction{
		Program: program,
		Witness: witnessBytes,
		Cost:    satisfied.Cost(),
	}, nil
}

// Stack returns [witness, program, cmr, control block].
func (s *Satisfaction) Stack(cmr [32]byte, controlBlock []byte) [][]byte {
	return [][]byte{
		s.Witness,
		s.Program,
		append([]byte{}, cmr[:]...),
		controlBlock,
	}
}

func SerializeStack(stack [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := psbt.WriteTxWitness(&buf, stack); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Budget is the maximum cost, in milli weight units, a program spent with
// the given witness stack may have.
func Budget(stack [][]byte) (uint64, error) {
	serialized, err := SerializeStack(stack)
	if err != nil {
		return 0, err
	}
	return (uint64(len(serialized)) + budgetOverhead) * 1000, nil
}

func CheckBudget(stack [][]byte, cost uint64) error {
	budget, err := Budget(stack)
	if err != nil {
		return err
	}
	if cost > budget {
		return fmt.Errorf("%w: cost %d, budget %d", ErrWitnessBudgetExceeded, cost, budget)
	}
	return nil
}

func AttachWitness(pset *psetv2.Pset, inputIndex int, stack [][]byte) error {
	if inputIndex < 0 || inputIndex >= len(pset.Inputs) {
		return fmt.Errorf("input index %d out of range", inputIndex)
	}

	serialized, err := SerializeStack(stack)
	if err != nil {
		return err
	}

	pset.Inputs[inputIndex].FinalScriptWitness = serialized
	return nil
}

// FinalizeInput satisfies the program spent by the given input within the
// context of the whole pset, checks the witness budget and attaches the
// resulting stack to the input.
func FinalizeInput(
	engine Engine,
	compiled *Compiled,
	schema Schema,
	witness WitnessValues,
	controlBlock []byte,
	pset *psetv2.Pset,
	inputIndex int,
	genesisHash *chainhash.Hash,
) error {
	if err := schema.Check(witness); err != nil {
		return err
	}

	env, err := NewEnv(pset, inputIndex, controlBlock, genesisHash)
	if err != nil {
		return err
	}

	satisfaction, err := Satisfy(engine, compiled, witness, env)
	if err != nil {
		return err
	}

	stack := satisfaction.Stack(compiled.Cmr, controlBlock)
	if err := CheckBudget(stack, satisfaction.Cost); err != nil {
		return err
	}

	return AttachWitness(pset, inputIndex, stack)
}
