package usecase

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"network20-backend/internal/domain"
	"network20-backend/pkg/apperror"
	"network20-backend/pkg/logger"
	"network20-backend/pkg/metrics"
	"network20-backend/pkg/validation"
)

// upstreamError is satisfied by errors carrying the remote backend's answer.
type upstreamError interface {
	error
	HTTPStatus() int
	PublicMessage() string
}

var errNotConfigured = apperror.ServiceUnavailable("Remote backend is not configured", domain.ErrBackendNotConfigured)

var errPointerUnused = apperror.New(http.StatusConflict, "The current-user pointer is not used with per-request sessions", nil)

// toAppError maps store and backend failures onto AppError.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, domain.ErrBackendNotConfigured) {
		return apperror.ServiceUnavailable("Remote backend is not configured", err)
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		return apperror.New(http.StatusUnauthorized, "Sign in required", err)
	}
	var up upstreamError
	if errors.As(err, &up) {
		status := up.HTTPStatus()
		if status >= 400 && status < 500 {
			return apperror.New(status, up.PublicMessage(), err)
		}
		return apperror.BadGateway("Remote backend error", err)
	}
	return apperror.Internal(err)
}

func validationError(err error) error {
	return apperror.New(http.StatusBadRequest, strings.Join(validation.FormatValidationErrors(err), "; "), err)
}

type readPolicy struct {
	mode   domain.StoreMode
	strict bool
}

// settle records a read and, unless reads are strict, turns a failure into
// the empty result after logging it.
func settle[T any](p readPolicy, op string, start time.Time, v T, err error, empty T) (T, error) {
	metrics.ObserveStore(op, p.mode, start, err)
	if err == nil {
		return v, nil
	}
	logger.Log.Error("store read failed", "op", op, "mode", p.mode, "error", err)
	if p.strict {
		return empty, toAppError(err)
	}
	return empty, nil
}

// finish records a write; write failures always reach the caller.
func finish[T any](p readPolicy, op string, start time.Time, v T, err error) (T, error) {
	metrics.ObserveStore(op, p.mode, start, err)
	if err != nil {
		var zero T
		logger.Log.Error("store write failed", "op", op, "mode", p.mode, "error", err)
		return zero, toAppError(err)
	}
	return v, nil
}
