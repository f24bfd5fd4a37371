package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orionpulse/orionpulse/internal/auth"
	"github.com/orionpulse/orionpulse/internal/workspace"
	"github.com/rs/zerolog"
)

// Error messages returned to clients.
const (
	msgUnauthenticated  = "Authentification requise"
	msgForbidden        = "Accès refusé à ce workspace"
	msgSessionForeign   = "Session Copilot hors du workspace autorisé"
	msgInvalidRequest   = "Requête invalide"
	msgCopilotFailure   = "Impossible de traiter la requête Copilot"
	msgInternalFailure  = "Erreur interne du serveur"
	msgRoleRequired     = "Rôle operator ou admin requis"
	msgInvalidJSON      = "Corps JSON invalide"
	msgMediaType        = "Content-Type application/json requis"
	maxRequestBodyBytes = 1 << 20
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details *Details `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDecodeError reports a decode failure: 422 with details for invalid
// bodies, 415 for a non-JSON Content-Type, 500 otherwise.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msgInvalidRequest, Details: &verr.Details})
	case errors.Is(err, errUnsupportedMediaType):
		zerolog.Ctx(r.Context()).Debug().Str("content_type", r.Header.Get("Content-Type")).Msg("Rejected request body media type")
		writeError(w, http.StatusUnsupportedMediaType, msgMediaType)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to decode request")
		writeError(w, http.StatusInternalServerError, internalMessage)
	}
}

// resolve resolves the workspace of r. On failure the response has already
// been written and nil is returned.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, internalMessage string) *workspace.Resolution {
	req := workspace.Request{
		Principal:  auth.PrincipalFromContext(r.Context()),
		HeaderHint: r.Header.Get(workspace.HeaderName),
	}
	if cookie, err := r.Cookie(workspace.CookieName); err == nil {
		req.CookieHint = cookie.Value
	}

	res, err := s.resolver.Resolve(r.Context(), req)
	if err == nil {
		return res
	}

	logger := zerolog.Ctx(r.Context())
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		logger.Debug().Err(err).Msg("Unauthenticated request")
		writeError(w, http.StatusForbidden, msgUnauthenticated)
	case errors.Is(err, auth.ErrForbidden):
		logger.Warn().Err(err).Msg("Workspace access denied")
		writeError(w, http.StatusForbidden, msgForbidden)
	default:
		logger.Error().Err(err).Msg("Failed to resolve workspace")
		writeError(w, http.StatusInternalServerError, internalMessage)
	}
	return nil
}
