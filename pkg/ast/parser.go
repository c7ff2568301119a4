package ast

import "fmt"

// Parser turns raw SQL text into statements. A single input may contain
// multiple statements separated by semicolons.
type Parser interface {
	Parse(sql string) ([]*Statement, error)
}

// ParseError reports that an input could not be parsed under a dialect.
type ParseError struct {
	Dialect string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Dialect == "" {
		return fmt.Sprintf("parse error: %s", e.Message)
	}
	return fmt.Sprintf("parse error (%s): %s", e.Dialect, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
