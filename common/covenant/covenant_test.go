package covenant_test

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/covenant/digest"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements/psetv2"
)

const template = covenant.Template("test_covenant")

var (
	args = covenant.Arguments{
		"AMOUNT": covenant.U64(100000),
		"FLAG":   covenant.Bool(true),
	}
	schema = covenant.Schema{
		"PATH":   covenant.TypeU8,
		"AMOUNT": covenant.TypeU64,
	}
	genesis = chainhash.Hash{0x01}
)

func testPset(t *testing.T, cmr [32]byte) (*psetv2.Pset, []byte) {
	tree, err := common.NewStatefulCovenant(cmr, 1)
	require.NoError(t, err)

	utxo, err := common.NewExplicitUtxo(
		common.Outpoint{Txid: "0000000000000000000000000000000000000000000000000000000000000002"},
		common.AssetID{0x01}, 1000, tree.ScriptPubKey(),
	)
	require.NoError(t, err)

	updater, err := txutils.NewPset(0)
	require.NoError(t, err)
	require.NoError(t, txutils.AddInputs(updater, &utxo))
	require.NoError(t, updater.AddOutputs([]psetv2.OutputArgs{
		txutils.Output(utxo.Asset, 1000, tree.ScriptPubKey()),
	}))
	return updater.Pset, tree.ControlBlock()
}

func TestCompile(t *testing.T) {
	engine := digest.NewEngine()

	t.Run("deterministic", func(t *testing.T) {
		first, err := covenant.Compile(engine, template, args)
		require.NoError(t, err)
		second, err := covenant.Compile(engine, template, covenant.Arguments{
			"FLAG":   covenant.Bool(true),
			"AMOUNT": covenant.U64(100000),
		})
		require.NoError(t, err)
		require.Equal(t, first.Cmr, second.Cmr)
	})

	t.Run("sensitive", func(t *testing.T) {
		first, err := covenant.Compile(engine, template, args)
		require.NoError(t, err)
		second, err := covenant.Compile(engine, template, covenant.Arguments{
			"AMOUNT": covenant.U64(100001),
			"FLAG":   covenant.Bool(true),
		})
		require.NoError(t, err)
		require.NotEqual(t, first.Cmr, second.Cmr)

		third, err := covenant.Compile(engine, "other_covenant", args)
		require.NoError(t, err)
		require.NotEqual(t, first.Cmr, third.Cmr)
	})

	t.Run("invalid", func(t *testing.T) {
		compiled, err := covenant.Compile(engine, "", args)
		require.ErrorIs(t, err, covenant.ErrCompilationFailed)
		require.ErrorIs(t, err, digest.ErrEmptyTemplate)
		require.Nil(t, compiled)

		var compErr *covenant.CompilationError
		require.True(t, errors.As(err, &compErr))

		compiled, err = covenant.Compile(engine, template, covenant.Arguments{
			"AMOUNT": {Type: covenant.TypeU64, Bytes: []byte{1}},
		})
		require.ErrorIs(t, err, covenant.ErrCompilationFailed)
		require.Nil(t, compiled)

		compiled, err = covenant.Compile(nil, template, args)
		require.ErrorIs(t, err, covenant.ErrCompilationFailed)
		require.Nil(t, compiled)
	})

	t.Run("engine failure", func(t *testing.T) {
		engine := &mockedEngine{}
		engine.On("Compile", template, mock.Anything).
			Return(nil, errors.New("parse error at line 1"))

		compiled, err := covenant.Compile(engine, template, args)
		require.ErrorIs(t, err, covenant.ErrCompilationFailed)
		require.Contains(t, err.Error(), "parse error at line 1")
		require.Nil(t, compiled)
	})
}

func TestSchemaCheck(t *testing.T) {
	valid := covenant.WitnessValues{
		"PATH":   covenant.U8(1),
		"AMOUNT": covenant.U64(0),
	}
	require.NoError(t, schema.Check(valid))

	invalid := []covenant.WitnessValues{
		{"PATH": covenant.U8(1)},
		{"PATH": covenant.U8(1), "AMOUNT": covenant.U32(0)},
		{"PATH": covenant.U8(1), "AMOUNT": covenant.U64(0), "EXTRA": covenant.U8(0)},
		{"PATH": {Type: covenant.TypeU8}, "AMOUNT": covenant.U64(0)},
	}
	for _, witness := range invalid {
		require.ErrorIs(t, schema.Check(witness), covenant.ErrWitness)
	}
}

func TestFinalizeInput(t *testing.T) {
	witness := covenant.WitnessValues{
		"PATH":   covenant.U8(0),
		"AMOUNT": covenant.U64(1000),
	}

	t.Run("valid", func(t *testing.T) {
		engine := digest.NewEngine()
		compiled, err := covenant.Compile(engine, template, args)
		require.NoError(t, err)

		pset, controlBlock := testPset(t, compiled.Cmr)
		err = covenant.FinalizeInput(
			engine, compiled, schema, witness, controlBlock, pset, 0, &genesis,
		)
		require.NoError(t, err)
		require.NotEmpty(t, pset.Inputs[0].FinalScriptWitness)

		satisfaction, err := covenant.Satisfy(engine, compiled, witness, nil)
		require.NoError(t, err)
		stack := satisfaction.Stack(compiled.Cmr, controlBlock)
		require.Len(t, stack, 4)
		require.Equal(t, compiled.Cmr[:], stack[2])
		require.Len(t, stack[3], 65)

		serialized, err := covenant.SerializeStack(stack)
		require.NoError(t, err)
		require.Equal(t, serialized, pset.Inputs[0].FinalScriptWitness)
	})

	t.Run("invalid", func(t *testing.T) {
		engine := digest.NewEngine()
		compiled, err := covenant.Compile(engine, template, args)
		require.NoError(t, err)
		pset, controlBlock := testPset(t, compiled.Cmr)

		err = covenant.FinalizeInput(
			engine, compiled, schema, covenant.WitnessValues{"PATH": covenant.U8(0)},
			controlBlock, pset, 0, &genesis,
		)
		require.ErrorIs(t, err, covenant.ErrWitness)

		err = covenant.FinalizeInput(
			engine, compiled, schema, witness, controlBlock, pset, 1, &genesis,
		)
		require.Error(t, err)
		require.Empty(t, pset.Inputs[0].FinalScriptWitness)
	})

	t.Run("budget exceeded", func(t *testing.T) {
		program := mockedProgram{cmr: [32]byte{0x02}}
		engine := &mockedEngine{}
		engine.On("Compile", template, mock.Anything).Return(program, nil)
		engine.On("Satisfy", program, witness, mock.Anything).Return(mockedSatisfied{
			program: []byte{0x01, 0x02},
			witness: []byte{0x03},
			cost:    1 << 40,
		}, nil)

		compiled, err := covenant.Compile(engine, template, args)
		require.NoError(t, err)
		pset, controlBlock := testPset(t, compiled.Cmr)

		err = covenant.FinalizeInput(
			engine, compiled, schema, witness, controlBlock, pset, 0, &genesis,
		)
		require.ErrorIs(t, err, covenant.ErrWitnessBudgetExceeded)
		require.Empty(t, pset.Inputs[0].FinalScriptWitness)
		engine.AssertExpectations(t)
	})

	t.Run("satisfaction failure", func(t *testing.T) {
		program := mockedProgram{cmr: [32]byte{0x03}}
		engine := &mockedEngine{}
		engine.On("Compile", template, mock.Anything).Return(program, nil)
		engine.On("Satisfy", program, witness, mock.Anything).
			Return(nil, errors.New("assertion failed"))

		compiled, err := covenant.Compile(engine, template, args)
		require.NoError(t, err)
		pset, controlBlock := testPset(t, compiled.Cmr)

		err = covenant.FinalizeInput(
			engine, compiled, schema, witness, controlBlock, pset, 0, &genesis,
		)
		require.ErrorIs(t, err, covenant.ErrWitness)
		require.Contains(t, err.Error(), "assertion failed")
	})
}

func TestSatisfy(t *testing.T) {
	witness := covenant.WitnessValues{"PATH": covenant.U8(0)}
	program := mockedProgram{cmr: [32]byte{0x04}}
	compiled := &covenant.Compiled{Template: template, Program: program, Cmr: program.cmr}

	t.Run("missing engine", func(t *testing.T) {
		_, err := covenant.Satisfy(nil, compiled, witness, nil)
		require.ErrorIs(t, err, covenant.ErrWitness)
	})

	t.Run("missing satisfied program", func(t *testing.T) {
		engine := &mockedEngine{}
		engine.On("Satisfy", program, witness, mock.Anything).Return(nil, nil)

		_, err := covenant.Satisfy(engine, compiled, witness, nil)
		require.ErrorIs(t, err, covenant.ErrWitness)
		engine.AssertExpectations(t)
	})

	t.Run("missing program", func(t *testing.T) {
		_, err := covenant.Satisfy(digest.NewEngine(), nil, witness, nil)
		require.ErrorIs(t, err, covenant.ErrWitness)
	})
}

func TestBudget(t *testing.T) {
	stack := [][]byte{{0x01}, {0x02, 0x03}}
	budget, err := covenant.Budget(stack)
	require.NoError(t, err)
	// 1 count byte + 2 + 3
	require.Equal(t, uint64((6+50)*1000), budget)

	require.NoError(t, covenant.CheckBudget(stack, budget))
	require.ErrorIs(t, covenant.CheckBudget(stack, budget+1), covenant.ErrWitnessBudgetExceeded)
}
