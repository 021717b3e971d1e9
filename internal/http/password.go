package http

import (
	"errors"
	"net/http"
	"strings"

	"fittrack/api/internal/auth"
	"fittrack/api/internal/identity"
	"fittrack/api/internal/mail"
	"fittrack/api/internal/model"
)

const resetRequestedMessage = "If an account exists for that email, a reset link has been sent"

type resetRequest struct {
	Email string `json:"email"`
}

// handlePasswordResetRequest answers the same way whether or not the email
// belongs to a password account.
func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	client, err := s.identity.LookupLocal(r.Context(), req.Email)
	if isNotFound(err) {
		s.metrics.AuthEvent("password_reset", "unknown_email")
		writeJSON(w, http.StatusOK, map[string]string{"message": resetRequestedMessage})
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	claims := sessionClaims(client)
	claims.Purpose = auth.PurposePasswordReset
	token, err := s.signer.Issue(claims, s.cfg.ActionTokenTTL)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	s.metrics.AuthEvent("password_reset", "requested")
	s.sendMail(r.Context(), mail.PasswordResetMessage(s.cfg.AppURL, client.Email, token))

	writeJSON(w, http.StatusOK, map[string]string{"message": resetRequestedMessage})
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	claims, err := s.signer.Parse(req.Token, auth.PurposePasswordReset)
	if err != nil {
		s.metrics.AuthEvent("password_reset", "failure")
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	err = s.identity.ResetPassword(r.Context(), claims.UserID, req.Password)
	var verr *identity.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		s.writeServiceError(w, r, err, "")
		return
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrInvalidCredentials):
		s.metrics.AuthEvent("password_reset", "failure")
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	default:
		s.writeServiceError(w, r, err, "")
		return
	}

	s.metrics.AuthEvent("password_reset", "success")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset successfully"})
}
