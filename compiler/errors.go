package compiler

import (
	"errors"
	"strings"
)

// Messages surfaced to editors. They are part of the wire contract with the UI.
const (
	MsgInvalidStructure = "Invalid program structure"
	MsgInvalidJSON      = "Invalid JSON format"
)

// ErrInvalidStructure is matched by every StructuralError.
var ErrInvalidStructure = errors.New("compiler: invalid program structure")

// StructuralError reports a flow that failed shape checks. Errors is the itemized list
// a UI can highlight one by one.
type StructuralError struct {
	Errors []string
}

func (e *StructuralError) Error() string {
	if len(e.Errors) == 0 {
		return MsgInvalidStructure
	}
	if len(e.Errors) == 1 && e.Errors[0] == MsgInvalidStructure {
		return MsgInvalidStructure
	}
	return MsgInvalidStructure + ": " + strings.Join(e.Errors, "; ")
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrInvalidStructure
}
