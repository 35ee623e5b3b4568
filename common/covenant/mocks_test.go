package covenant_test

import (
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/stretchr/testify/mock"
)

type mockedEngine struct {
	mock.Mock
}

func (m *mockedEngine) Compile(
	template covenant.Template, args covenant.Arguments,
) (covenant.Program, error) {
	res := m.Called(template, args)

	var prog covenant.Program
	if a := res.Get(0); a != nil {
		prog = a.(covenant.Program)
	}
	return prog, res.Error(1)
}

func (m *mockedEngine) Satisfy(
	program covenant.Program, witness covenant.WitnessValues, env *covenant.Env,
) (covenant.SatisfiedProgram, error) {
	res := m.Called(program, witness, env)

	var satisfied covenant.SatisfiedProgram
	if a := res.Get(0); a != nil {
		satisfied = a.(covenant.SatisfiedProgram)
	}
	return satisfied, res.Error(1)
}

type mockedProgram struct {
	cmr [32]byte
}

func (p mockedProgram) Cmr() [32]byte {
	return p.cmr
}

type mockedSatisfied struct {
	program []byte
	witness []byte
	cost    uint64
}

func (s mockedSatisfied) Encode() ([]byte, []byte, error) {
	return s.program, s.witness, nil
}

func (s mockedSatisfied) Cost() uint64 {
	return s.cost
}
