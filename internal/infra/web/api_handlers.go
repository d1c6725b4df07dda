package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"page-auth-service/internal/domain"
	"page-auth-service/internal/infra/logging"
	"page-auth-service/internal/infra/metrics"
	"page-auth-service/internal/infra/redis"
	"page-auth-service/internal/usecase"
)

type sessionUser struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	State         string       `json:"state"`
	PageID        string       `json:"page_id,omitempty"`
	ProxyToken    string       `json:"proxy_token,omitempty"`
	User          *sessionUser `json:"user,omitempty"`
}

// handleSession reports the caller's bootstrap state. An anonymous caller
// gets a 200 with authenticated=false rather than a 401: the page polls
// this endpoint on load and an error status would be noise.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := s.sessions.ReadSession(r)
	if err != nil {
		metrics.ObserveStatus(usecase.StateUnauthenticated)
		writeJSON(w, http.StatusOK, sessionResponse{
			Authenticated: false,
			State:         usecase.StateUnauthenticated,
		})
		return
	}

	ctx = logging.WithIdentityID(ctx, claims.Subject)
	res, err := s.statusUC.Check(ctx, claims.Subject, claims.Name, claims.Email)
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("status check failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	metrics.ObserveStatus(res.State)
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		State:         res.State,
		PageID:        res.PageID,
		ProxyToken:    res.ProxyToken,
		User:          &sessionUser{Name: claims.Name, Email: claims.Email},
	})
}

type redeemRequest struct {
	Code      string `json:"code"`
	PageTitle string `json:"page_title"`
	OwnerName string `json:"owner_name"`
	Greeting  string `json:"greeting"`
}

type redeemResponse struct {
	OK         bool         `json:"ok"`
	State      string       `json:"state"`
	PageID     string       `json:"page_id"`
	ProxyToken string       `json:"proxy_token"`
	User       *sessionUser `json:"user,omitempty"`
}

// handleRedeem claims a code for the authenticated identity. Every
// unusable-code condition answers with the same message so the endpoint
// cannot be used to enumerate code states.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := s.sessions.ReadSession(r)
	if err != nil {
		metrics.ObserveRedemption("unauthenticated")
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	ctx = logging.WithIdentityID(ctx, claims.Subject)

	if !s.allow(ctx, redis.RedeemKey(claims.Subject), redeemLimit) {
		metrics.ObserveRedemption("rate_limited")
		writeError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.redeemUC.Redeem(ctx, claims.Subject, claims.Name, claims.Email, usecase.RedeemInput{
		Code:      req.Code,
		PageTitle: req.PageTitle,
		OwnerName: req.OwnerName,
		Greeting:  req.Greeting,
	})
	if err != nil {
		s.writeRedeemError(w, r, err)
		return
	}

	metrics.ObserveRedemption("success")
	logging.With(ctx, s.log).Info().Str("page_id", res.PageID).Msg("code redeemed")
	writeJSON(w, http.StatusOK, redeemResponse{
		OK:         true,
		State:      usecase.StateReady,
		PageID:     res.PageID,
		ProxyToken: res.ProxyToken,
		User:       &sessionUser{Name: claims.Name, Email: claims.Email},
	})
}

func (s *Server) writeRedeemError(w http.ResponseWriter, r *http.Request, err error) {
	l := logging.With(r.Context(), s.log)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		metrics.ObserveRedemption("unauthenticated")
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrInvalidArgument):
		metrics.ObserveRedemption("bad_request")
		writeError(w, http.StatusBadRequest, "code is required")
	case errors.Is(err, domain.ErrCodeInvalid):
		metrics.ObserveRedemption("invalid_code")
		writeError(w, http.StatusBadRequest, "invalid code")
	case errors.Is(err, domain.ErrAlreadyProvisioned):
		metrics.ObserveRedemption("already_provisioned")
		writeError(w, http.StatusBadRequest, "account already has a page")
	default:
		metrics.ObserveRedemption("error")
		l.Error().Err(err).Msg("redemption failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
