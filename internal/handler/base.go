package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lossyrob/arturo-stac-api/internal/middleware"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/validation"
)

// Handler is the base type holding shared application dependencies.
// Concrete handlers embed it to reach the server container (config,
// logger, db, services).
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler. Returned by value: the struct
// only holds a pointer, so copies are cheap and share the Server.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// --- Generic typed handler plumbing -----------------------------------------

// HandlerFunc is a typed endpoint function: it receives a bound and
// validated request payload and returns the response or an error.
type HandlerFunc[Req any, Res any] func(c echo.Context, req *Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint function for routes that
// return no response body.
type HandlerFuncNoContent[Req any] func(c echo.Context, req *Req) error

// ResponseHandler defines how a successful handler result is written
// to the HTTP response.
type ResponseHandler interface {
	Handle(c echo.Context, result any) error

	// GetOperation names the handler kind for structured logging.
	GetOperation() string
}

// JSONResponseHandler writes JSON responses with a fixed status code.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

// NoContentResponseHandler writes responses with no body.
type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, result any) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

// handleRequest is the shared execution pipeline for typed handlers.
// It centralizes request binding and validation, structured logging
// with the request-scoped logger, phase timing, and response writing.
// Errors return unwritten so the global error handler renders them.
func handleRequest(
	c echo.Context,
	req validation.Validatable,
	handler func(c echo.Context) (any, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", c.Path()).
		Logger()

	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		logger.Warn().
			Err(err).
			Dur("validation_duration", time.Since(validationStart)).
			Msg("request validation failed")
		return err
	}

	handlerStart := time.Now()
	result, err := handler(c)
	if err != nil {
		logger.Error().
			Err(err).
			Dur("handler_duration", time.Since(handlerStart)).
			Dur("total_duration", time.Since(start)).
			Msg("handler execution failed")
		return err
	}

	logger.Debug().
		Dur("handler_duration", time.Since(handlerStart)).
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return responseHandler.Handle(c, result)
}

// Handle wraps a typed handler into an echo.HandlerFunc, allocating a
// fresh request value per request before binding.
//
//	router.POST("/collections", handler.Handle(h, h.CreateCollection, http.StatusCreated))
//
// *Req must implement validation.Validatable.
func Handle[Req any, Res any, PReq interface {
	*Req
	validation.Validatable
}](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(Req)
		return handleRequest(c, PReq(req), func(c echo.Context) (any, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleNoContent is Handle for endpoints that return no body, like a
// DELETE answering 204.
func HandleNoContent[Req any, PReq interface {
	*Req
	validation.Validatable
}](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(Req)
		return handleRequest(c, PReq(req), func(c echo.Context) (any, error) {
			return nil, handler(c, req)
		}, NoContentResponseHandler{status: status})
	}
}
