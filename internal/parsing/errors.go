package parsing

import "fmt"

// ParseError is returned when a document cannot be turned into normalized facts.
// Any ParseError rejects the whole upload.
type ParseError struct {
	FileName string
	Message  string
	Cause    error
}

func (e *ParseError) Error() string {
	prefix := "parse error"
	if e.FileName != "" {
		prefix = fmt.Sprintf("parse error in %s", e.FileName)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// UnsupportedFormatError is returned for documents that are neither PDF, ZIP nor text
type UnsupportedFormatError struct {
	FileName string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format: %s", e.FileName)
}
