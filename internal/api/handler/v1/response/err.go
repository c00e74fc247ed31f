package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vietanh2810/attendance-api/internal/domain"
)

type Err struct {
	HTTPStatusCode int `json:"-"`

	StatusText string   `json:"status_text"`
	ErrorText  string   `json:"error_text,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	RequestID  string   `json:"request_id,omitempty"`

	err error
}

func (e *Err) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.StatusText
}

func (e *Err) Unwrap() error { return e.err }

// RenderErr aborts the request with e. Server side failures are logged with
// the request id; their details never reach the client.
func RenderErr(ctx *gin.Context, e *Err) {
	e.RequestID = requestid.Get(ctx)

	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", e.RequestID),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(e.err),
		)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func ErrBadRequest(err error) *Err {
	e := &Err{
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Bad request.",
		ErrorText:      err.Error(),
		err:            err,
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		e.Fields = verr.Fields()
	}

	return e
}

func ErrUnauthorized(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     "Unauthorized.",
		ErrorText:      err.Error(),
		err:            err,
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusForbidden,
		StatusText:     "Permission denied.",
		ErrorText:      err.Error(),
		err:            err,
	}
}

func ErrNotFound(resource, key string, value any) *Err {
	err := fmt.Errorf("%v with %v = %v not found", resource, key, value)

	return &Err{
		HTTPStatusCode: http.StatusNotFound,
		StatusText:     "Resource not found.",
		ErrorText:      err.Error(),
		err:            err,
	}
}

func ErrConflict(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusConflict,
		StatusText:     "Conflict.",
		ErrorText:      err.Error(),
		err:            err,
	}
}

func ErrUnavailable(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusServiceUnavailable,
		StatusText:     "Service unavailable.",
		ErrorText:      err.Error(),
		err:            err,
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
		err:            err,
	}
}

// FromDomain maps an error returned by a service onto its HTTP response by
// error kind.
func FromDomain(err error) *Err {
	var nf *domain.NotFoundError

	switch {
	case errors.Is(err, domain.ErrValidation):
		e := ErrBadRequest(err)
		e.ErrorText = innermost(err).Error()
		return e
	case errors.As(err, &nf):
		return &Err{
			HTTPStatusCode: http.StatusNotFound,
			StatusText:     "Resource not found.",
			ErrorText:      nf.Error(),
			err:            err,
		}
	case errors.Is(err, domain.ErrStateConflict):
		return ErrConflict(innermost(err))
	case errors.Is(err, domain.ErrExhausted):
		return ErrUnavailable(innermost(err))
	default:
		return ErrInternalServerError(err)
	}
}

// innermost drops the call chain prefixes added while the error bubbled up.
func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
