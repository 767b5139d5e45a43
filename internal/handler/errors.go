// internal/handler/errors.go
package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"deposit-service/internal/domain"
	"deposit-service/pkg/response"
)

// RetryAfterSeconds is advertised on retryable failures
const RetryAfterSeconds = 5

type failureBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// statusFor maps a rejection reason to its HTTP status
func statusFor(reason domain.RejectionReason) int {
	switch reason {
	case domain.ReasonAlreadyProcessed:
		return http.StatusConflict
	case domain.ReasonNotFound:
		return http.StatusNotFound
	case domain.ReasonAdapterFailure:
		return http.StatusBadGateway
	case domain.ReasonPersistenceFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// writeError renders err. Rejections keep their message; anything else is
// logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	rej, ok := domain.AsRejection(err)
	if !ok {
		logger.Error("Unhandled error", zap.Error(err))
		response.Write(w, http.StatusInternalServerError, failureBody{
			Error: "Internal server error",
			Code:  "internal",
		})
		return
	}

	status := statusFor(rej.Reason)
	if rej.Retryable() {
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	}
	if status >= http.StatusInternalServerError && rej.Err != nil {
		logger.Error("Request failed",
			zap.String("reason", string(rej.Reason)),
			zap.Error(rej.Err))
	}

	response.Write(w, status, failureBody{
		Error:     rej.Message,
		Code:      string(rej.Reason),
		Retryable: rej.Retryable(),
	})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	response.Write(w, http.StatusBadRequest, failureBody{
		Error: msg,
		Code:  string(domain.ReasonInvalidRequest),
	})
}
