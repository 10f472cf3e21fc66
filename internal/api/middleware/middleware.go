package middleware

import (
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is the uniform error envelope. Error carries the stable
// machine-readable code, Message the human-readable detail.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Logger attaches a request id and logs one line per request with latency.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestID := req.HeaderParameter("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	resp.AddHeader("X-Request-Id", requestID)

	start := time.Now()
	chain.ProcessFilter(req, resp)

	log.Info().
		Str("request_id", requestID).
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("Request handled")
}

// RecoverPanic converts handler panics into a 500 error response.
func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("path", req.Request.URL.Path).
				Msg("Recovered from panic")
			WriteError(resp, http.StatusInternalServerError, "internal_error", "Internal server error")
		}
	}()
	chain.ProcessFilter(req, resp)
}

// WriteError emits the error envelope with the given status.
func WriteError(resp *restful.Response, status int, code, message string) {
	if err := resp.WriteHeaderAndEntity(status, ErrorResponse{Error: code, Message: message}); err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}

// HandleError emits an error whose message comes straight from err.
func HandleError(resp *restful.Response, err error, status int) {
	code := "internal_error"
	if status == http.StatusBadRequest {
		code = "bad_request"
	}
	WriteError(resp, status, code, err.Error())
}
