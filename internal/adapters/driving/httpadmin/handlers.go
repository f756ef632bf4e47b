package httpadmin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// accountPayload is the wire representation of an account. Provider
// config is write-only on this surface: it may carry secrets (client
// secrets), so listings never echo it back.
type accountPayload struct {
	ID            string            `json:"id"`
	DisplayName   string            `json:"displayName"`
	Provider      string            `json:"provider"`
	Domains       []string          `json:"domains"`
	Enabled       bool              `json:"enabled"`
	Priority      int               `json:"priority"`
	Authenticated bool              `json:"authenticated"`
	Config        map[string]string `json:"config,omitempty"`
}

func (s *Server) accountView(r *http.Request, account *domain.Account) accountPayload {
	return accountPayload{
		ID:            account.ID,
		DisplayName:   account.DisplayName,
		Provider:      string(account.Provider),
		Domains:       account.Domains,
		Enabled:       account.Enabled,
		Priority:      account.Priority,
		Authenticated: s.accounts.Authenticated(r.Context(), account),
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := make([]accountPayload, 0, len(accounts))
	for i := range accounts {
		payload = append(payload, s.accountView(r, &accounts[i]))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account := domain.Account{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Provider:    domain.Provider(req.Provider),
		Enabled:     req.Enabled,
		Priority:    req.Priority,
		Domains:     req.Domains,
		Config:      req.Config,
	}
	if err := s.accounts.Add(r.Context(), account); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.accountView(r, &account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req accountPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account := domain.Account{
		ID:          id,
		DisplayName: req.DisplayName,
		Provider:    domain.Provider(req.Provider),
		Enabled:     req.Enabled,
		Priority:    req.Priority,
		Domains:     req.Domains,
		Config:      req.Config,
	}
	if err := s.accounts.Update(r.Context(), account); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.accountView(r, &account))
}

func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logout, _ := strconv.ParseBool(r.URL.Query().Get("logout"))
	if err := s.accounts.Remove(r.Context(), id, logout); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.accounts.Logout(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// flowStartResponse is returned once the identity provider issues a
// device code.
type flowStartResponse struct {
	AccountID       string `json:"accountId"`
	UserCode        string `json:"userCode"`
	VerificationURL string `json:"verificationUrl"`
	Message         string `json:"message"`
	ExpiresIn       int    `json:"expiresIn"`
}

func (s *Server) handleStartFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	prompt, err := s.flows.StartDeviceFlow(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrAuthNotSupported):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrCodeTimeout):
			writeError(w, http.StatusGatewayTimeout, err.Error())
		case errors.Is(err, domain.ErrFlowSuperseded):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, flowStartResponse{
		AccountID:       prompt.AccountID,
		UserCode:        prompt.UserCode,
		VerificationURL: prompt.VerificationURL,
		Message:         prompt.Message,
		ExpiresIn:       int(prompt.ExpiresIn / time.Second),
	})
}

// flowStatusResponse is a snapshot of one flow.
type flowStatusResponse struct {
	AccountID       string     `json:"accountId"`
	FlowID          string     `json:"flowId,omitempty"`
	Status          string     `json:"status"`
	Message         string     `json:"message,omitempty"`
	UserCode        string     `json:"userCode,omitempty"`
	VerificationURL string     `json:"verificationUrl,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

func (s *Server) handleFlowStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flow, err := s.flows.Status(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, flowStatusResponse{AccountID: id, Status: "not_found"})
		return
	}
	resp := flowStatusResponse{
		AccountID:       flow.AccountID,
		FlowID:          flow.ID,
		Status:          string(flow.Status),
		Message:         flow.Message,
		UserCode:        flow.UserCode,
		VerificationURL: flow.VerificationURL,
		StartedAt:       &flow.StartedAt,
	}
	if !flow.CompletedAt.IsZero() {
		resp.CompletedAt = &flow.CompletedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.flows.Cancel(id) {
		writeError(w, http.StatusNotFound, domain.ErrFlowNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// writeDomainError maps domain error categories onto status codes so
// callers can branch: validation 400, not-found 404, conflict 409.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownProvider),
		errors.Is(err, domain.ErrProviderImmutable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
