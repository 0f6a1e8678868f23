package server

import (
	"encoding/json"
	"net/http"

	"facial-editor/internal/placement"
	"facial-editor/internal/session"
	"facial-editor/pkg/errors"
)

// HTTPStatus maps an error's code to a response status.
func HTTPStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeUnsupportedFormat:
		return http.StatusBadRequest
	case errors.ErrCodeSessionNotFound, errors.ErrCodeAssetNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNoCanvas, errors.ErrCodeNoSelection, errors.ErrCodeNoPreview,
		errors.ErrCodeNothingToUndo, errors.ErrCodeUnconfirmedPreview:
		return http.StatusConflict
	case errors.ErrCodePersistence:
		if errors.Is(err, errors.ErrCodeUnsupportedFormat) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// frameResponse answers every event.
type frameResponse struct {
	Status     string `json:"status"`
	State      string `json:"state"`
	Overlays   int    `json:"overlays"`
	Previewing bool   `json:"previewing"`
}

type overlaysResponse struct {
	Overlays  []placement.Overlay  `json:"overlays"`
	Preview   *placement.Overlay   `json:"preview,omitempty"`
	Selection *placement.Selection `json:"selection,omitempty"`
	Summary   string               `json:"summary"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, HTTPStatus(err), errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeFrame(w http.ResponseWriter, c *session.Controller, f session.Frame) {
	if f.Err != nil {
		writeError(w, f.Err)
		return
	}
	sum := c.Summary()
	writeJSON(w, http.StatusOK, frameResponse{
		Status:     f.Status,
		State:      c.Kind().String(),
		Overlays:   len(sum.Overlays),
		Previewing: sum.Preview != nil,
	})
}
