package imaging

import "fmt"

// ValidationError reports a file rejected before decoding: unsupported
// format or oversize upload.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Reason)
}

// NormalizationError reports a decode or encode failure for a single file.
type NormalizationError struct {
	Name  string
	Stage string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Name, e.Stage, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
