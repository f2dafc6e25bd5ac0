package energy

import "fmt"

// DecodeError is returned when a block payload is not valid base64 or does not
// hold a whole number of 4-byte samples.
type DecodeError struct {
	Group  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "failed to decode block"
	if e.Group != "" {
		msg += fmt.Sprintf(" of group %q", e.Group)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MalformedTreeError is returned when a node can neither be walked (no
// sub_groups) nor decoded (no blocks).
type MalformedTreeError struct {
	Group  string
	Reason string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed group %q: %s", e.Group, e.Reason)
}
