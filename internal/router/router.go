package router

import (
	"net/http"

	"github.com/insuquote/backend/internal/auth"
	"github.com/insuquote/backend/internal/dashboard"
)

// New returns an http.Handler serving the contractor dashboard API under
// /api/v1.
func New(authHandler *auth.Handler, dashHandler *dashboard.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"
	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	mux.HandleFunc("GET "+base+"/account/me", dashHandler.GetMe)
	mux.HandleFunc("POST "+base+"/service-areas", dashHandler.AddServiceArea)
	mux.HandleFunc("GET "+base+"/credit-ledger", dashHandler.ListCreditLedger)
	mux.HandleFunc("POST "+base+"/credits/topup", dashHandler.Topup)
	mux.HandleFunc("GET "+base+"/assignments", dashHandler.ListAssignments)

	mux.HandleFunc("GET "+base+"/api-keys", dashHandler.ListAPIKeys)
	mux.HandleFunc("POST "+base+"/api-keys", dashHandler.CreateAPIKey)
	mux.HandleFunc("DELETE "+base+"/api-keys/{id}", dashHandler.DeleteAPIKey)

	return mux
}
