package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lossyrob/arturo-stac-api/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode reports the mapped Code for a given error, walking the wrap
// chain. Errors that are not database errors report Other.
func ErrCode(err error) Code {
	var pgerr *Error
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return Other
}

// ConvertPgError normalizes a raw pgconn.PgError into *Error, mapping
// SQLSTATE and severity onto the package enums and keeping the schema
// metadata the server reports.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		Detail:         src.Detail,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// TagTable wraps err with the table it came from, in the form
// HandleError parses for not-found messages:
//
//	table:collections: no rows in result set
func TagTable(table string, err error) error {
	return fmt.Errorf("table:%s: %w", table, err)
}

// generateErrorCode creates stable machine codes from database errors,
// in the form <DOMAIN>_<ACTION>, e.g. items + UniqueViolation =>
// ITEM_ALREADY_EXISTS.
func generateErrorCode(domain string, errType Code) string {
	if domain == "" {
		domain = "RECORD"
	}

	domain = strings.ToUpper(domain)

	// Crude singularization; fine for this schema.
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, DataException:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// getEntityName infers an entity name from table/column metadata.
// Columns like "collection_id" beat the table name, since they name the
// thing a reference points at.
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText converts snake_case identifiers into Title Case:
// "collection_id" -> "Collection Id".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation infers the column behind a unique
// constraint name, supporting "unique_<table>_<column>" and
// "<table>_<column>_(key|ukey)" conventions. Primary key constraints
// ("<table>_pkey") name no single column and report "".
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	re := regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)
	matches := re.FindStringSubmatch(constraintName)
	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// referencedEntity infers what a foreign key points at from its
// constraint name. Postgres auto-names these "<table>_<column>_fkey",
// so "items_collection_id_fkey" on table "items" yields "collection".
func referencedEntity(sqlErr *Error) string {
	name := sqlErr.ConstraintName
	if strings.HasSuffix(name, "_fkey") {
		name = strings.TrimSuffix(name, "_fkey")
		name = strings.TrimPrefix(name, sqlErr.TableName+"_")
		name = strings.TrimSuffix(name, "_id")
		if name != "" {
			return name
		}
	}

	if sqlErr.ColumnName != "" {
		return strings.TrimSuffix(strings.ToLower(sqlErr.ColumnName), "_id")
	}
	return "record"
}

// HandleError converts a low-level database error into an application
// error clients can receive.
//
//   - *errs.HTTPError passes through unchanged.
//   - pgconn.PgError maps by violation type: unique -> 409, foreign key
//     -> 404 (missing parent) or 409 (still referenced), not-null and
//     check and malformed values -> 400, anything else -> sanitized 500.
//   - ErrNoRows -> 404, with the entity name when the error was tagged
//     via TagTable.
//   - Unknown errors -> sanitized 500.
//
// Call it in repositories after a failed database operation.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			entity := referencedEntity(sqlErr)

			// The same constraint fires in both directions: inserting a
			// child whose parent is missing, and deleting a parent that
			// still has children. The server's detail line tells them
			// apart.
			if strings.Contains(sqlErr.Detail, "still referenced") {
				message := fmt.Sprintf("The %s is still referenced by existing %s",
					humanizeText(entity), humanizeText(sqlErr.TableName))
				code := strings.ToUpper(entity) + "_STILL_REFERENCED"
				return errs.NewConflictError(message, &code)
			}

			message := fmt.Sprintf("The referenced %s does not exist", humanizeText(entity))
			code := generateErrorCode(entity, ForeignKeyViolation)
			return errs.NewNotFoundError(message, &code)

		case UniqueViolation:
			entity := getEntityName(sqlErr.TableName, sqlErr.ColumnName)
			message := fmt.Sprintf("%s with this identifier already exists", entity)
			if columnName := extractColumnForUniqueViolation(sqlErr.ConstraintName); columnName != "" {
				message = strings.ReplaceAll(message, "identifier", strings.ToLower(humanizeText(columnName)))
			}
			code := generateErrorCode(sqlErr.TableName, UniqueViolation)
			return errs.NewConflictError(message, &code)

		case NotNullViolation:
			fieldName := humanizeText(sqlErr.ColumnName)
			if fieldName == "" {
				fieldName = "field"
			}
			message := fmt.Sprintf("The %s is required", fieldName)
			code := generateErrorCode(sqlErr.TableName, NotNullViolation)
			fieldErrors := []errs.FieldError{
				{Field: strings.ToLower(sqlErr.ColumnName), Error: "is required"},
			}
			return errs.NewBadRequestError(message, &code, fieldErrors)

		case CheckViolation:
			message := "One or more values do not meet required conditions"
			if fieldName := humanizeText(sqlErr.ColumnName); fieldName != "" {
				message = fmt.Sprintf("The %s value does not meet required conditions", fieldName)
			}
			code := generateErrorCode(sqlErr.TableName, CheckViolation)
			return errs.NewBadRequestError(message, &code, nil)

		case DataException:
			code := generateErrorCode(sqlErr.TableName, DataException)
			return errs.NewBadRequestError("One or more values have an invalid format", &code, nil)

		default:
			return errs.NewInternalServerError()
		}
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		errMsg := err.Error()
		tablePrefix := "table:"
		if strings.Contains(errMsg, tablePrefix) {
			table := strings.Split(strings.Split(errMsg, tablePrefix)[1], ":")[0]
			entityName := getEntityName(table, "")
			return errs.NewNotFoundError(fmt.Sprintf("%s not found", entityName), nil)
		}
		return errs.NewNotFoundError("Resource not found", nil)
	}

	return errs.NewInternalServerError()
}
