package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ptrack/pkg/display"
	"ptrack/pkg/models"
	"ptrack/pkg/state"
)

type exploreRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

type statusResponse struct {
	Mode string           `json:"mode"`
	Page display.PageView `json:"page"`
}

type latencyResponse struct {
	SamplesMs []float64 `json:"samples_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with json-iterator.
func writeJSON(c *gin.Context, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

func (s *Server) handleNetworks(c *gin.Context) {
	writeJSON(c, http.StatusOK, models.Networks)
}

func (s *Server) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, statusResponse{
		Mode: string(s.explorer.Mode()),
		Page: display.Page(s.explorer.Snapshot()),
	})
}

func (s *Server) handleLatency(c *gin.Context) {
	history := s.explorer.LatencyHistory()
	resp := latencyResponse{SamplesMs: make([]float64, 0, len(history))}
	for _, d := range history {
		resp.SamplesMs = append(resp.SamplesMs, float64(d.Microseconds())/1000)
	}
	writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleExplore(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "error reading request body"})
		return
	}
	var req exploreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "error parsing request body"})
		return
	}

	st, err := s.explorer.Explore(c.Request.Context(), req.Address, req.Network)
	var verr *state.ValidationError
	if errors.As(err, &verr) {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: verr.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		writeJSON(c, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, display.Page(st))
}
