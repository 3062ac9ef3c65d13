package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lossyrob/arturo-stac-api/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asHTTPError unwraps the converted error or fails the test.
func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	err := HandleError(&pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "items_pkey"`,
		TableName:      "items",
		ConstraintName: "items_pkey",
	})

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "ITEM_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "Item with this identifier already exists", httpErr.Message)
}

func TestHandleErrorForeignKeyMissingParent(t *testing.T) {
	err := HandleError(&pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23503",
		Message:        `insert or update on table "items" violates foreign key constraint "items_collection_id_fkey"`,
		Detail:         `Key (collection_id)=(nope) is not present in table "collections".`,
		TableName:      "items",
		ConstraintName: "items_collection_id_fkey",
	})

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "COLLECTION_NOT_FOUND", httpErr.Code)
	assert.Equal(t, "The referenced Collection does not exist", httpErr.Message)
}

func TestHandleErrorForeignKeyStillReferenced(t *testing.T) {
	err := HandleError(&pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23503",
		Message:        `update or delete on table "collections" violates foreign key constraint "items_collection_id_fkey" on table "items"`,
		Detail:         `Key (id)=(joplin) is still referenced from table "items".`,
		TableName:      "items",
		ConstraintName: "items_collection_id_fkey",
	})

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "COLLECTION_STILL_REFERENCED", httpErr.Code)
	assert.Equal(t, "The Collection is still referenced by existing Items", httpErr.Message)
}

func TestHandleErrorNotNullViolation(t *testing.T) {
	err := HandleError(&pgconn.PgError{
		Severity:   "ERROR",
		Code:       "23502",
		Message:    `null value in column "datetime" violates not-null constraint`,
		TableName:  "items",
		ColumnName: "datetime",
	})

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "ITEM_REQUIRED", httpErr.Code)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "datetime", httpErr.Errors[0].Field)
}

func TestHandleErrorDataException(t *testing.T) {
	err := HandleError(&pgconn.PgError{
		Severity:  "ERROR",
		Code:      "22P02",
		Message:   "invalid input syntax for type json",
		TableName: "items",
	})

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "ITEM_INVALID", httpErr.Code)
}

func TestHandleErrorUnknownPgErrorIsSanitized(t *testing.T) {
	err := HandleError(&pgconn.PgError{
		Severity: "ERROR",
		Code:     "57014", // query_canceled
		Message:  "canceling statement due to statement timeout",
	})

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), httpErr.Message)
}

func TestHandleErrorNoRows(t *testing.T) {
	t.Run("tagged with table", func(t *testing.T) {
		err := HandleError(TagTable("collections", pgx.ErrNoRows))
		httpErr := asHTTPError(t, err)
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
		assert.Equal(t, "Collection not found", httpErr.Message)
	})

	t.Run("untagged", func(t *testing.T) {
		err := HandleError(pgx.ErrNoRows)
		httpErr := asHTTPError(t, err)
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
		assert.Equal(t, "Resource not found", httpErr.Message)
	})
}

func TestHandleErrorPassthroughAndFallback(t *testing.T) {
	t.Run("existing HTTPError passes through", func(t *testing.T) {
		original := errs.NewNotFoundError("Item not found", nil)
		assert.Same(t, original, HandleError(original))
	})

	t.Run("unknown error becomes 500", func(t *testing.T) {
		httpErr := asHTTPError(t, HandleError(errors.New("connection reset")))
		assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	})
}

func TestErrCode(t *testing.T) {
	converted := ConvertPgError(&pgconn.PgError{Code: "23505", Severity: "ERROR"})
	assert.Equal(t, UniqueViolation, ErrCode(converted))
	assert.Equal(t, UniqueViolation, ErrCode(fmt.Errorf("insert: %w", converted)))
	assert.Equal(t, Other, ErrCode(errors.New("nope")))
}

func TestConvertPgErrorUnwrapsToDriverError(t *testing.T) {
	src := &pgconn.PgError{Code: "23503", Severity: "FATAL", Detail: "detail"}
	converted := ConvertPgError(src)

	assert.Equal(t, ForeignKeyViolation, converted.Code)
	assert.Equal(t, SeverityFatal, converted.Severity)
	assert.Equal(t, "detail", converted.Detail)

	var pgerr *pgconn.PgError
	require.ErrorAs(t, converted, &pgerr)
	assert.Same(t, src, pgerr)
}

func TestMapCode(t *testing.T) {
	assert.Equal(t, UniqueViolation, MapCode("23505"))
	assert.Equal(t, ForeignKeyViolation, MapCode("23503"))
	assert.Equal(t, NotNullViolation, MapCode("23502"))
	assert.Equal(t, CheckViolation, MapCode("23514"))
	assert.Equal(t, DataException, MapCode("22P02"))
	assert.Equal(t, DataException, MapCode("22023"))
	assert.Equal(t, Other, MapCode("57014"))
}
