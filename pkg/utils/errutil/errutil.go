package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
)

// Handle logs the error with a message and reports it to Sentry when a client
// is configured. It returns the error as-is so callers can keep propagating it.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.CaptureException(err)
	}

	return err
}

// StatusFor maps an error to an HTTP status code based on its tags
func StatusFor(err error) int {
	switch {
	case types.IsValidation(err):
		return http.StatusBadRequest
	case types.IsDownstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleHTTP logs the error and writes a JSON error response. Server-fault
// causes are logged with full detail but not exposed verbatim to the caller.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	if statusCode >= http.StatusInternalServerError {
		if hub := sentry.CurrentHub(); hub.Client() != nil {
			hub.CaptureException(err)
		}
	}

	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		message = "internal error"
	}
	if statusCode == http.StatusBadGateway {
		message = "upstream capability failed"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := map[string]string{"error": message}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		logger.Error("failed to write error response", "error", encodeErr)
	}
}
