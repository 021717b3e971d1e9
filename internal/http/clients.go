package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fittrack/api/internal/auth"
	"fittrack/api/internal/identity"
	"fittrack/api/internal/mail"
	"fittrack/api/internal/model"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req identity.SignupInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	client, err := s.identity.CreateLocalIdentity(r.Context(), req)
	if err != nil {
		s.metrics.AuthEvent("signup", "failure")
		s.writeServiceError(w, r, err, "User not found")
		return
	}
	s.metrics.AuthEvent("signup", "success")

	s.sendMail(r.Context(), mail.WelcomeMessage(s.cfg.AppURL, client.Email, client.FirstName, client.VerificationToken))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Client created successfully",
		"client":  newClientView(client),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	ip := clientIP(r)
	allowed, err := s.limiter.Allow(r.Context(), ip)
	if err != nil {
		s.logger.WarnContext(r.Context(), "login limiter unavailable", "error", err)
	}
	if !allowed {
		s.metrics.AuthEvent("login", "throttled")
		writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	client, err := s.identity.VerifyLocalCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		s.metrics.AuthEvent("login", "failure")
		s.writeServiceError(w, r, err, "User not found")
		return
	}

	token, err := s.signer.Issue(sessionClaims(client), s.cfg.SessionTokenTTL)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	if err := s.limiter.Reset(r.Context(), ip); err != nil {
		s.logger.WarnContext(r.Context(), "login limiter reset failed", "error", err)
	}
	s.metrics.AuthEvent("login", "success")

	s.setSessionCookie(w, token, http.SameSiteStrictMode)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    newClientView(client),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.clearCookie(w, sessionCookie, "/")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	_, err := s.identity.ConsumeVerificationToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		s.metrics.AuthEvent("verify_email", "failure")
		s.writeServiceError(w, r, err, "User not found")
		return
	}
	s.metrics.AuthEvent("verify_email", "success")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email has been verified successfully"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	client, err := s.identity.Profile(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile retrieved successfully",
		"profile": newClientView(client),
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req identity.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	claims := claimsFromContext(r.Context())
	client, err := s.identity.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		s.writeServiceError(w, r, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"profile": newClientView(client),
	})
}

func (s *Server) handleUpdateGoals(w http.ResponseWriter, r *http.Request) {
	var req identity.GoalsInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	claims := claimsFromContext(r.Context())
	goals, err := s.identity.UpdateGoals(r.Context(), claims.UserID, req)
	if err != nil {
		s.writeServiceError(w, r, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Goals updated successfully",
		"goals":   newGoalsView(goals),
	})
}

func (s *Server) handleSetWorkouts(w http.ResponseWriter, r *http.Request) {
	var req identity.WorkoutScheduleInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	claims := claimsFromContext(r.Context())
	client, err := s.identity.SetWorkoutSchedule(r.Context(), claims.UserID, req)
	if err != nil {
		s.writeServiceError(w, r, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Workout schedule updated successfully",
		"workoutSchedule": newScheduleView(client.WorkoutSchedule),
	})
}

func (s *Server) handleAppendLog(w http.ResponseWriter, r *http.Request) {
	var req identity.LogInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	claims := claimsFromContext(r.Context())
	log, err := s.identity.AppendLog(r.Context(), claims.UserID, req)
	if err != nil {
		s.writeServiceError(w, r, err, "Client not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Log added successfully",
		"newLog":  newLogView(log),
	})
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	// Missing or malformed limits fall back to the full page.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	claims := claimsFromContext(r.Context())
	logs, err := s.identity.ListLogs(r.Context(), claims.UserID, limit)
	if err != nil {
		s.writeServiceError(w, r, err, "Client not found")
		return
	}
	views := make([]logView, 0, len(logs))
	for _, l := range logs {
		views = append(views, newLogView(l))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logs retrieved successfully",
		"count":   len(views),
		"logs":    views,
	})
}

func sessionClaims(c model.Client) auth.Claims {
	return auth.Claims{
		UserID:    c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Purpose:   auth.PurposeSession,
	}
}

// isNotFound reports lookups that must not be revealed to the caller.
func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
