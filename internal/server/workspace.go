package server

import (
	"net/http"

	"github.com/orionpulse/orionpulse/internal/workspace"
)

type workspaceResponse struct {
	WorkspaceID string `json:"workspaceId"`
	Role        string `json:"role,omitempty"`
	Source      string `json:"source"`
}

// handleWorkspace reports the active workspace and remembers it in the workspace cookie.
func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	res := s.resolve(w, r, msgInternalFailure)
	if res == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     workspace.CookieName,
		Value:    res.WorkspaceID.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.insecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	resp := workspaceResponse{WorkspaceID: res.WorkspaceID.String(), Source: res.Source}
	if res.Membership != nil {
		resp.Role = res.Membership.Role
	}
	writeJSON(w, http.StatusOK, resp)
}
