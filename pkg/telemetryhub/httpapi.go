package telemetryhub

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP control surface: status and metrics
// snapshots plus start/stop/reset/command actions.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/status", g.handleStatus)
	r.Get("/metrics", g.handleMetrics)
	r.Post("/start", g.handleStart)
	r.Post("/stop", g.handleStop)
	r.Post("/reset", g.handleReset)
	r.Post("/command", g.handleCommand)

	return r
}

type statusResponse struct {
	State        string  `json:"state"`
	LatestSample *Sample `json:"latest_sample"`
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := g.core.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		State:        st.State.String(),
		LatestSample: st.LatestSample,
	})
}

func (g *Gateway) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.core.GetMetrics())
}

func (g *Gateway) handleStart(w http.ResponseWriter, r *http.Request) {
	g.core.Start()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (g *Gateway) handleStop(w http.ResponseWriter, r *http.Request) {
	g.core.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (g *Gateway) handleReset(w http.ResponseWriter, r *http.Request) {
	ok := g.core.ResetDevice()
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]bool{"ok": ok})
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	Reply string `json:"reply"`
	OK    bool   `json:"ok"`
}

func (g *Gateway) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	reply, ok := g.SendCommand(req.Command)
	status := http.StatusOK
	if !ok {
		// The command never reached the interpreter (lost comms or
		// empty bus window).
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, commandResponse{Reply: reply, OK: ok})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
