package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
)

// ErrResponse is the JSON body of every non-2xx API reply.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Error          string `json:"error"`
	Code           string `json:"code,omitempty"`
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errResponse(err error) *ErrResponse {
	resp := &ErrResponse{HTTPStatusCode: statusFor(err), Error: err.Error()}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
	}
	return resp
}

func errBadRequest(msg string) *ErrResponse {
	return &ErrResponse{HTTPStatusCode: http.StatusBadRequest, Error: msg, Code: common.CodeValidation}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, async.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, async.ErrQueueFull), errors.Is(err, async.ErrQueueClosed):
		return http.StatusServiceUnavailable
	}
	return common.HTTPStatus(err)
}
