package codegen

import (
	"errors"
	"fmt"
)

// FaultCode categorizes runtime faults raised by a compiled program.
type FaultCode string

const (
	// FaultOverflow indicates an arithmetic result exceeded the
	// representable range of its width.
	FaultOverflow FaultCode = "ARITHMETIC_OVERFLOW"

	// FaultDivideByZero indicates a division or remainder with a zero
	// divisor.
	FaultDivideByZero FaultCode = "DIVISION_BY_ZERO"
)

// FaultError is a runtime fault surfaced while executing a compiled
// program. Faults are part of the program's semantics: the compiler chose,
// per call site, to emit the raising path instead of a null result.
type FaultError struct {
	// Code identifies the fault category.
	Code FaultCode

	// PC is the instruction index that raised the fault.
	PC int
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	return fmt.Sprintf("%s at pc=%d", e.Code, e.PC)
}

// IsOverflow returns true if err is an arithmetic-overflow fault.
// Uses errors.As to handle wrapped errors.
func IsOverflow(err error) bool {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe.Code == FaultOverflow
	}
	return false
}

// IsDivideByZero returns true if err is a division-by-zero fault.
// Uses errors.As to handle wrapped errors.
func IsDivideByZero(err error) bool {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe.Code == FaultDivideByZero
	}
	return false
}
