package pipeline

import (
	"encoding/json"
	"net/http"
)

// InternalHandler returns an http.Handler for the pipeline's internal API.
func (p *Pipeline) InternalHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/internal/pipeline", p.handleStatus)
	return mux
}

func (p *Pipeline) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p.Status())
}
