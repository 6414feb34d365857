// Package httpapi exposes the query dispatcher over HTTP: a single
// GET endpoint taking a FEN and an optional multi-PV count, returning
// the decoded principal variations as JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hailam/cdbserver/internal/cdberr"
	"github.com/hailam/cdbserver/internal/dispatch"
)

// Server wires a Dispatcher onto an HTTP mux.
type Server struct {
	dispatcher *dispatch.Dispatcher
	log        *zap.Logger
}

// NewServer returns a Server that answers queries through d, logging
// through log.
func NewServer(d *dispatch.Dispatcher, log *zap.Logger) *Server {
	return &Server{dispatcher: d, log: log}
}

// Routes mounts the query endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/v1/query", s.handleQuery)
}

type pvLineJSON struct {
	Score int16    `json:"score"`
	Line  []string `json:"line"`
}

type queryResponse struct {
	PVs []pvLineJSON `json:"pvs"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		writeError(w, http.StatusBadRequest, "bad_position", "missing fen parameter")
		return
	}

	multiPV := 1
	if raw := r.URL.Query().Get("multi_pv"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "multi_pv_range", "multi_pv must be an integer")
			return
		}
		multiPV = n
	}

	resp, err := s.dispatcher.QueryPV(r.Context(), fen, multiPV)
	if err != nil {
		status := cdberr.HTTPStatus(err)
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= 500 {
			s.log.Error("query_pv failed", zap.Error(err), zap.String("fen", fen))
		}
		writeError(w, status, causeCode(err), err.Error())
		return
	}

	out := queryResponse{}
	for _, pvLine := range resp.PVs {
		out.PVs = append(out.PVs, pvLineJSON{Score: pvLine.Score, Line: pvLine.Line})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{cdberr.ErrBadPosition, "bad_position"},
	{cdberr.ErrMultiPvRange, "multi_pv_range"},
	{cdberr.ErrMalformedBlob, "malformed_blob"},
	{cdberr.ErrDbError, "db_error"},
}

func causeCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "internal_error"
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: code, Detail: detail})
}
