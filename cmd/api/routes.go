package main

import (
	"log/slog"
	"net/http"

	"github.com/insuquote/backend/internal/handlers"
	"github.com/insuquote/backend/internal/middleware"
	"github.com/insuquote/backend/internal/repository"
	"github.com/insuquote/backend/internal/services"
)

// RegisterV1Routes adds the /v1/ marketplace endpoints to the given mux.
// Customer-facing routes (lead intake, lead view, quote acceptance) sit
// behind the upstream form layer and carry no API auth; contractor routes
// require an API key.
func RegisterV1Routes(
	mux *http.ServeMux,
	apiKeyRepo *repository.APIKeyRepo,
	leadRepo *repository.LeadRepo,
	assignmentRepo *repository.AssignmentRepo,
	distributor *services.Distributor,
	responder *services.Responder,
	quotes *services.Quotes,
	validator *services.Validator,
	logger *slog.Logger,
) {
	lh := &handlers.LeadHandler{
		Leads:       leadRepo,
		Assignments: assignmentRepo,
		Distributor: distributor,
		Quotes:      quotes,
		Validator:   validator,
		Logger:      logger,
	}
	ah := &handlers.AssignmentHandler{
		Responder:   responder,
		Quotes:      quotes,
		Assignments: assignmentRepo,
		Logger:      logger,
	}

	auth := middleware.APIKeyAuth(apiKeyRepo)

	mux.HandleFunc("POST /v1/leads", lh.CreateLead)
	mux.HandleFunc("GET /v1/leads/{id}", lh.GetLead)
	mux.HandleFunc("POST /v1/leads/{id}/accept-quote", lh.AcceptQuote)

	mux.Handle("POST /v1/assignments/{id}/respond", auth(http.HandlerFunc(ah.Respond)))
	mux.Handle("POST /v1/assignments/{id}/quote", auth(http.HandlerFunc(ah.SubmitQuote)))
	mux.Handle("GET /v1/assignments", auth(http.HandlerFunc(ah.List)))
}
