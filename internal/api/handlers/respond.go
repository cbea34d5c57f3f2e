package handlers

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/wonny/krxdaily/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondData(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// optionalDate parses a YYYYMMDD query parameter; empty means unbounded
func optionalDate(r *http.Request, key string) (*time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	d, err := contracts.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
