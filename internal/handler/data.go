package handler

import (
	"net/http"
	"time"

	"github.com/securebridge/securebridge/internal/auth"
)

// DataHandler serves the protected data endpoint used by integrating
// services. The route is guarded by RequirePermission("read:data").
type DataHandler struct{}

// NewDataHandler creates a new DataHandler.
func NewDataHandler() *DataHandler {
	return &DataHandler{}
}

// Get handles GET /api/v1/data
func (h *DataHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	caller := "unknown"
	switch {
	case principal.IsService():
		caller = principal.Key.ServiceName
	case principal.IsUser():
		caller = principal.User.Email
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":         "sensitive payload",
		"accessed_by":  caller,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}
