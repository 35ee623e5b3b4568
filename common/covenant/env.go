package covenant

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/vulpemventures/go-elements/psetv2"
	"github.com/vulpemventures/go-elements/transaction"
)

// Env is the transaction context a program executes in. Programs that
// reference sibling inputs or outputs need it to be satisfied.
type Env struct {
	Tx           *transaction.Transaction
	InputIndex   uint32
	Utxos        []*transaction.TxOutput
	ControlBlock []byte
	GenesisHash  chainhash.Hash
}

func NewEnv(
	pset *psetv2.Pset, inputIndex int, controlBlock []byte, genesisHash *chainhash.Hash,
) (*Env, error) {
	if inputIndex < 0 || inputIndex >= len(pset.Inputs) {
		return nil, fmt.Errorf("input index %d out of range", inputIndex)
	}
	if genesisHash == nil {
		return nil, fmt.Errorf("missing genesis block hash")
	}

	utxos := make([]*transaction.TxOutput, 0, len(pset.Inputs))
	for i, in := range pset.Inputs {
		if in.WitnessUtxo == nil {
			return nil, fmt.Errorf("missing witness utxo on input #%d", i)
		}
		utxos = append(utxos, in.WitnessUtxo)
	}

	utx, err := pset.UnsignedTx()
	if err != nil {
		return nil, err
	}

	return &Env{
		Tx:           utx,
		InputIndex:   uint32(inputIndex),
		Utxos:        utxos,
		ControlBlock: controlBlock,
		GenesisHash:  *genesisHash,
	}, nil
}
