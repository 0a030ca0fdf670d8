package httpapi

import (
	"net/http"

	"planhub.org/internal/audit"
	"planhub.org/internal/pm"
)

// userView is the user shape embedded in session responses.
type userView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      pm.Role `json:"role"`
	CompanyID string  `json:"companyId"`
}

// sessionResponse is the flat shape returned by register, login and
// refresh.
type sessionResponse struct {
	Success      bool     `json:"success"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         userView `json:"user"`
}

func newSessionResponse(user pm.User, pair pm.TokenPair) sessionResponse {
	return sessionResponse{
		Success:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: userView{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			CompanyID: user.CompanyID,
		},
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		CompanyID string `json:"companyId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, pair, err := a.sessions.Register(r.Context(), req.Name, req.Email, req.Password, req.CompanyID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"new_user_id": user.ID,
		"company_id":  user.CompanyID,
	})
	writeJSON(w, http.StatusCreated, newSessionResponse(user, pair))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, pair, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"login_user_id": user.ID,
	})
	writeJSON(w, http.StatusOK, newSessionResponse(user, pair))
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}
	user, pair, err := a.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(user, pair))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if err := a.sessions.Logout(r.Context(), actor.ID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeMessage(w, http.StatusOK, "logged out")
}
