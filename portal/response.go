package portal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (p *Portal) jsonResponse(w http.ResponseWriter, v interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		p.log.Errorf("Could not respond with JSON: %v", err)
	}
}

func (p *Portal) textResponse(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, err := fmt.Fprintf(w, "%v\n", token)
	if err != nil {
		p.log.Errorf("Could not respond: %v", err)
	}
}
