package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/telegate/telegate/auth"
	"github.com/telegate/telegate/internal/utils"
)

const contentTypeJSON = "application/json; charset=utf-8"

// CheckSessionHandler validates the presented session. Always 200; the body
// and transport headers carry the verdict.
func (s *Server) CheckSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.auth.CheckSession(r.Context(), sessionFromRequest(r))
		applySessionTransport(w, res)
		writeJSON(w, http.StatusOK, checkResponse(res))
	}
}

// AuthActionHandler dispatches POST requests on the action discriminator.
func (s *Server) AuthActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, authResponse{Error: "invalid request body"})
			return
		}

		ctx := r.Context()
		sessionString := sessionFromRequest(r)

		var (
			res auth.Result
			err error
		)
		switch req.Action {
		case ActionSendCode:
			res, err = s.auth.SendCode(ctx, sessionString, req.PhoneNumber)
		case ActionVerifyCode:
			res, err = s.auth.VerifyCode(ctx, sessionString, req.PhoneNumber, req.PhoneCodeHash, req.PhoneCode, req.Password)
		case ActionLogout:
			res = s.auth.Logout(ctx, sessionString)
		default:
			writeJSON(w, http.StatusBadRequest, authResponse{Error: "Invalid action"})
			return
		}

		if err != nil {
			s.writeAuthError(w, req.Action, err)
			return
		}

		applySessionTransport(w, res)
		writeJSON(w, statusForResult(res), actionResponse(res))
	}
}

// HealthHandler reports liveness and the current pool size.
func (s *Server) HealthHandler() http.HandlerFunc {
	type healthResponse struct {
		Status      string `json:"status"`
		PooledCount int    `json:"pooledClients"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", PooledCount: s.pool.Len()})
	}
}

// statusForResult maps a completed (non-error) orchestrator outcome onto an
// HTTP status.
func statusForResult(res auth.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.FloodWait:
		return http.StatusTooManyRequests
	case res.CodeExpired || res.CodeInvalid:
		return http.StatusBadRequest
	case res.PasswordRequired:
		// An expected state transition, not a failure.
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// writeAuthError maps orchestrator errors onto the caller-facing taxonomy:
// 400 for input validation, 501 for the documented 2FA gap, 500 otherwise.
func (s *Server) writeAuthError(w http.ResponseWriter, action string, err error) {
	resp := authResponse{Success: utils.Ptr(false), Error: rootMessage(err)}

	switch {
	case errors.Is(err, auth.PhoneRequiredErr),
		errors.Is(err, auth.InvalidPhoneErr),
		errors.Is(err, auth.MissingVerifyFieldsErr):
		writeJSON(w, http.StatusBadRequest, resp)

	case errors.Is(err, auth.NonNumericCodeErr):
		resp.CodeInvalid = true
		writeJSON(w, http.StatusBadRequest, resp)

	case errors.Is(err, auth.TwoFactorUnimplementedErr):
		writeJSON(w, http.StatusNotImplemented, resp)

	default:
		log.Error().Str("action", action).Err(err).Msg("auth action failed")
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// rootMessage unwraps to the innermost cause so callers see the provider's
// message, not our wrapping breadcrumbs.
func rootMessage(err error) string {
	type causer interface {
		Cause() error
	}
	for err != nil {
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}
