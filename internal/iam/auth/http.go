// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

// HTTP delivery layer for credential authentication.
//
// # Architecture
//
// Handlers act as the "gatekeepers" to the system. They are responsible for:
//   - JSON Request parsing and strict input validation.
//   - Mapping HTTP contexts to service layer method calls.
//   - Standardizing JSON response formats via the [respond] package.
//
// They contain NO business logic or database queries.
package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/platform/constants"
	requestutil "github.com/annotide/annotide/internal/platform/request"
	"github.com/annotide/annotide/internal/platform/respond"
	"github.com/annotide/annotide/internal/platform/validate"
)

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /login : Authenticates JSON credentials, returns a JWT + profile.
//   - POST /token : OAuth2 password-grant shaped form login.
//   - GET  /me    : Returns the authenticated identity's profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/token", handler.token)
	router.Get("/me", handler.me)

	return router
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login handles POST /api/v1/auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK on success with AccessToken and the user profile.
//   - Writes HTTP 401 Unauthorized for bad credentials, without leaking
//     which part of the pair was wrong.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.Email == "" || input.Password == "" {
		respond.Error(writer, request, validate.RequiredError("email/password", "are required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	session, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, session)
}

// token handles POST /api/v1/auth/token requests.
//
// The form-encoded username/password shape matches the OAuth2 password
// grant so CLI tooling and API clients can authenticate without JSON.
//
// # Returns
//   - Writes HTTP 200 OK with {access_token, token_type}.
//   - Writes HTTP 401 Unauthorized for bad credentials.
func (handler *Handler) token(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		respond.Error(writer, request, validate.RequiredError(identity.FieldUsername, "form body is malformed"))
		return
	}

	username := request.PostFormValue(identity.FieldUsername)
	password := request.PostFormValue(identity.FieldPassword)
	if username == "" || password == "" {
		respond.Error(writer, request, validate.RequiredError("username/password", "are required"))
		return
	}

	token, err := handler.authService.IssueToken(request.Context(), username, password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		identity.FieldAccessToken: token,
		identity.FieldTokenType:   constants.TokenTypeBearer,
	})
}

// me handles GET /api/v1/auth/me requests.
//
// # Returns
//   - Writes HTTP 200 OK with the profile, effective permissions included.
//   - Writes HTTP 401 Unauthorized when the request carries no valid token.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.authService.ProfileByEmail(request.Context(), claims.Subject)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
