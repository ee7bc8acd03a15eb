package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/people"
)

type errorResponse struct {
	Error    string           `json:"error"`
	Kind     directory.Kind   `json:"kind,omitempty"`
	Snapshot *people.Snapshot `json:"snapshot,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders err with the status its kind maps to. snapshot may be nil.
func writeError(w http.ResponseWriter, err error, snapshot *people.Snapshot) {
	writeJSON(w, statusFor(err), errorResponse{
		Error:    directory.Message(err),
		Kind:     directory.Classify(err),
		Snapshot: snapshot,
	})
}

func statusFor(err error) int {
	if errors.Is(err, people.ErrUnknownCollection) || errors.Is(err, directory.ErrNotFound) {
		return http.StatusNotFound
	}
	switch directory.Classify(err) {
	case directory.KindUnauthorized:
		return http.StatusUnauthorized
	case directory.KindDomain:
		return http.StatusConflict
	case directory.KindNetwork, directory.KindSearch:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
