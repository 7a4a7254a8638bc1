package layout

import (
	"errors"
	"fmt"
)

// Layout extraction errors.
var (
	// ErrInvalidConfiguration indicates missing or invalid processor configuration
	ErrInvalidConfiguration = errors.New("invalid layout processor configuration")

	// ErrMissingCredentials indicates no Google Cloud credentials were found
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")

	// ErrDocumentTooLarge indicates the PDF exceeds the processing size limit
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")

	// ErrInvalidPDF indicates the input is not a valid PDF document
	ErrInvalidPDF = errors.New("invalid PDF document")

	// ErrProcessingFailed indicates the layout model call failed
	ErrProcessingFailed = errors.New("layout processing failed")

	// ErrNoPages indicates the document produced no rasterized pages
	ErrNoPages = errors.New("document has no pages")
)

// LayoutError provides context about where a layout operation failed.
type LayoutError struct {
	Op      string
	Err     error
	Details string
}

func (e *LayoutError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("layout %s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("layout %s: %v", e.Op, e.Err)
}

func (e *LayoutError) Unwrap() error {
	return e.Err
}

func (e *LayoutError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapLayoutError creates a LayoutError with operation context.
func WrapLayoutError(op string, err error, details string) error {
	return &LayoutError{Op: op, Err: err, Details: details}
}
