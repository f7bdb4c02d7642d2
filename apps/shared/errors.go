package shared

import "fmt"

// ArgumentError reports a command line argument that is missing or malformed.
type ArgumentError struct {
	Arg string
	msg string
}

func NewArgumentError(arg, msg string) *ArgumentError {
	return &ArgumentError{Arg: arg, msg: msg}
}

func (err *ArgumentError) Error() string {
	return fmt.Sprintf("-%s: %s", err.Arg, err.msg)
}
