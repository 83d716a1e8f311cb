// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package oauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/annotide/annotide/internal/platform/request"
	"github.com/annotide/annotide/internal/platform/respond"
	"github.com/annotide/annotide/internal/platform/validate"
)

// Handler implements the federated login HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new oauth [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] for the social login flow.
//
// # Endpoints
//   - GET /login/{provider}    : 302 redirect to the provider.
//   - GET /callback/{provider} : Completes the flow, returns a local token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/login/{provider}", handler.login)
	router.Get("/callback/{provider}", handler.callback)

	return router
}

/*
GET /api/v1/auth/social/login/{provider}.

Response:
  - 302: Redirect to the provider's authorization page
  - 400: UnsupportedProvider: Unknown provider name
  - 503: FederationNotConfigured: Provider credentials absent
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	location, err := handler.service.Initiate(request.Context(), requestutil.Param(request, "provider"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Redirect(writer, request, location)
}

/*
GET /api/v1/auth/social/callback/{provider}.

Request:
  - state: string (single-use token minted at initiate)
  - code: string (authorization code from the provider)

Response:
  - 200: TokenResult: {access_token, token_type}
  - 401: Unauthorized: Invalid, expired, or replayed state
  - 502: FederationExchange: Provider exchange or profile read failed
*/
func (handler *Handler) callback(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	state := query.Get("state")
	code := query.Get("code")

	if state == "" || code == "" {
		respond.Error(writer, request, validate.RequiredError("state/code", "are required"))
		return
	}

	result, err := handler.service.Callback(request.Context(), requestutil.Param(request, "provider"), state, code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}
