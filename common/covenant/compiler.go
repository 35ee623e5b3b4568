package covenant

import (
	"errors"
	"fmt"
)

var ErrCompilationFailed = errors.New("compilation failed")

type CompilationError struct {
	Template Template
	Err      error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("%s: template %s: %s", ErrCompilationFailed, e.Template, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *CompilationError) Is(target error) bool {
	return target == ErrCompilationFailed
}

// Compiled is the result of compiling a template with a set of arguments.
type Compiled struct {
	Template Template
	Program  Program
	Cmr      [32]byte
}

func Compile(engine Engine, template Template, args Arguments) (*Compiled, error) {
	if engine == nil {
		return nil, &CompilationError{template, errors.New("missing engine")}
	}
	for name, arg := range args {
		if err := arg.validate(); err != nil {
			return nil, &CompilationError{template, fmt.Errorf("argument %s: %s", name, err)}
		}
	}

	program, err := engine.Compile(template, args)
	if err != nil {
		return nil, &CompilationError{template, err}
	}
	if program == nil {
		return nil, &CompilationError{template, errors.New("engine returned no program")}
	}

	return &Compiled{
		Template: template,
		Program:  program,
		Cmr:      program.Cmr(),
	}, nil
}
