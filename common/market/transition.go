package market

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/vulpemventures/go-elements/psetv2"
)

// Transition is an unsigned market transaction together with what is
// needed to satisfy its covenant inputs.
type Transition struct {
	Pset *psetv2.Pset
	Path SpendingPath
	From MarketState
	To   MarketState
	// CovenantInputs lists the inputs spending the covenant, the first one
	// executes Path, the others the secondary path.
	CovenantInputs []int
}

// Finalize satisfies the covenant on every covenant input and attaches the
// resulting witness stacks. Non-covenant inputs are left to the wallet.
func (m *CompiledMarket) Finalize(tx *Transition, genesisHash *chainhash.Hash) error {
	if len(tx.CovenantInputs) == 0 {
		return nil
	}

	controlBlock, err := m.ControlBlock(tx.From)
	if err != nil {
		return err
	}

	primary := tx.CovenantInputs[0]
	for i, inputIndex := range tx.CovenantInputs {
		path := tx.Path
		if i > 0 {
			path = Secondary(primary)
		}

		if err := covenant.FinalizeInput(
			m.engine, m.Compiled, Schema, path.Witness(), controlBlock,
			tx.Pset, inputIndex, genesisHash,
		); err != nil {
			return fmt.Errorf("failed to finalize input %d (%s): %w", inputIndex, path.Kind, err)
		}
	}
	return nil
}
