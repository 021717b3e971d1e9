package http

import (
	"crypto/subtle"
	"net/http"

	"fittrack/api/internal/crypto"
	"fittrack/api/internal/identity"
)

const googleCookiePath = "/auth/google"

func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.logger.WarnContext(r.Context(), "google sign-in requested but not configured")
		s.redirectGoogleFailure(w, r)
		return
	}
	state, err := crypto.NewState()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "oauth state generation failed", "error", err)
		s.redirectGoogleFailure(w, r)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     googleCookiePath,
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.google.AuthCodeURL(state), http.StatusFound)
}

// handleGoogleCallback never reports failures as JSON. Every error ends on
// the sign-in page with a generic error flag.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fail := func(reason string, err error) {
		s.metrics.AuthEvent("google", "failure")
		s.logger.WarnContext(ctx, "google sign-in failed", "reason", reason, "error", err)
		s.redirectGoogleFailure(w, r)
	}

	if s.google == nil {
		fail("not configured", nil)
		return
	}
	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		fail("provider denied", nil)
		return
	}
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		fail("missing state cookie", err)
		return
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(query.Get("state"))) != 1 {
		fail("state mismatch", nil)
		return
	}
	code := query.Get("code")
	if code == "" {
		fail("missing code", nil)
		return
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		fail("exchange", err)
		return
	}
	client, err := s.identity.FindOrCreateFederatedIdentity(ctx, identity.FederatedProfile{
		ExternalID: profile.ID,
		Email:      profile.Email,
		FirstName:  profile.GivenName,
		LastName:   profile.FamilyName,
	})
	if err != nil {
		fail("resolve identity", err)
		return
	}
	token, err := s.signer.Issue(sessionClaims(client), s.cfg.SessionTokenTTL)
	if err != nil {
		fail("issue token", err)
		return
	}

	s.metrics.AuthEvent("google", "success")
	s.clearCookie(w, stateCookie, googleCookiePath)
	s.setSessionCookie(w, token, http.SameSiteLaxMode)
	http.Redirect(w, r, s.cfg.AppURL+"/dashboard", http.StatusFound)
}

func (s *Server) redirectGoogleFailure(w http.ResponseWriter, r *http.Request) {
	s.clearCookie(w, stateCookie, googleCookiePath)
	http.Redirect(w, r, s.cfg.AppURL+"/signin?error=google_auth_failed", http.StatusFound)
}
