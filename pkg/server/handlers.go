package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mercator-hq/flowlog/pkg/loki"
	"mercator-hq/flowlog/pkg/tools"
)

// InvokeResponse is the body of a successful tool call.
type InvokeResponse struct {
	Output string `json:"output"`
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manifest)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.toolkit.Definitions())
}

// handleInvoke runs POST /v1/tools/{name}. The body is the JSON argument
// object; an empty body means no arguments.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.toolkit.Lookup(name); !ok {
		writeError(w, &tools.UnknownToolError{Name: name})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorType(w, http.StatusRequestEntityTooLarge, ErrorTypeBodyTooLarge, err.Error())
			return
		}
		writeError(w, &loki.InvalidArgumentError{Field: "body", Message: err.Error()})
		return
	}

	var args json.RawMessage
	if len(body) > 0 {
		if !json.Valid(body) {
			writeError(w, &loki.InvalidArgumentError{Field: "body", Message: "must be a JSON object"})
			return
		}
		args = body
	}

	out, err := s.toolkit.Invoke(r.Context(), name, args)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InvokeResponse{Output: out})
}
