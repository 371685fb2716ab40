package codegen

import "fmt"

// GenError is raised when main is missing, a function or call exceeds
// 6 parameters/arguments, or an identifier reference resolves to no
// known local/parameter. It carries no source location (that mapping
// is dropped at the AST level — see spec §9), only a message.
type GenError struct {
	Message string
}

func (e GenError) Error() string {
	return fmt.Sprintf("Codegen error: %s", e.Message)
}

func errNoMain() GenError {
	return GenError{Message: "no function named 'main'"}
}

func errTooManyParams(fn string, n int) GenError {
	return GenError{Message: fmt.Sprintf("function %q has %d parameters, at most 6 are supported", fn, n)}
}

func errTooManyArgs(fn string, n int) GenError {
	return GenError{Message: fmt.Sprintf("call to %q has %d arguments, at most 6 are supported", fn, n)}
}

func errUndefinedName(name string) GenError {
	return GenError{Message: fmt.Sprintf("undefined name %q", name)}
}
