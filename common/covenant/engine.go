// Package covenant is the boundary between the contract families and the
// external program-commitment engine. The engine compiles parameterized
// templates into programs identified by their commitment root (CMR) and
// satisfies those programs with witness values. Everything else here is
// plumbing around those two calls: typed values, witness schemas, execution
// environments and the witness stack attached to covenant inputs.
package covenant

// Template names a contract template known to the engine.
type Template string

// Program is an opaque compiled program handle.
type Program interface {
	Cmr() [32]byte
}

// SatisfiedProgram is a program pruned and filled with witness data.
type SatisfiedProgram interface {
	// Encode returns the program and witness bit encodings.
	Encode() (program []byte, witness []byte, err error)
	// Cost is the execution cost in milli weight units.
	Cost() uint64
}

// Engine must be safe for concurrent use.
type Engine interface {
	Compile(template Template, args Arguments) (Program, error)
	// Satisfy prunes unused branches using env when it is not nil.
	Satisfy(program Program, witness WitnessValues, env *Env) (SatisfiedProgram, error)
}
