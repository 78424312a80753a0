package errors_test

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/seasr/vtable/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeValidation, "cannot convert value").
		WithDetail("column", "age").
		WithDetail("value", "forty")

	fmt.Println(err.Error())

	// Output:
	// validation: cannot convert value
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read snapshot").
		WithDetail("file", "table.vts")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Cause is preserved")
	}

	// Output:
	// This is a file error
	// Cause is preserved
}

// ExampleNewf demonstrates formatted messages.
func ExampleNewf() {
	err := errors.Newf(errors.ErrorTypeNotFound, "column %q not found", "salary")
	fmt.Println(err)

	// Output:
	// not_found: column "salary" not found
}
