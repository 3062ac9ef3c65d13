package sqlerr

import "fmt"

// Code is the friendly category for a database error, mapped from the
// SQLSTATE the server reports.
type Code int

const (
	Other Code = iota
	UniqueViolation
	ForeignKeyViolation
	NotNullViolation
	CheckViolation

	// DataException covers SQLSTATE class 22: values the server could
	// not interpret, like malformed JSON or invalid geometry input.
	DataException
)

// Severity mirrors the server-reported severity of an error.
type Severity int

const (
	SeverityOther Severity = iota
	SeverityError
	SeverityFatal
	SeverityPanic
)

// Error is the normalized form of a Postgres server error. It keeps the
// original SQLSTATE and schema metadata so callers can build precise
// messages, and unwraps to the driver error for debugging.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	Detail         string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlerr: %s (SQLSTATE %s)", e.Message, e.DatabaseCode)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode maps a SQLSTATE onto the friendly Code enum.
func MapCode(sqlstate string) Code {
	switch sqlstate {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	case "23514":
		return CheckViolation
	}
	if len(sqlstate) >= 2 && sqlstate[:2] == "22" {
		return DataException
	}
	return Other
}

// MapSeverity maps the server's severity string onto the Severity enum.
func MapSeverity(severity string) Severity {
	switch severity {
	case "ERROR":
		return SeverityError
	case "FATAL":
		return SeverityFatal
	case "PANIC":
		return SeverityPanic
	default:
		return SeverityOther
	}
}
