package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response. The status surface is read-only, so every
// handler funnels through here; errors go through apierr instead.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
