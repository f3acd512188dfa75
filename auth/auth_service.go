package auth

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/telegate/telegate/pool"
	"github.com/telegate/telegate/telegram"
)

// Service drives a user from anonymous to authorized against the protocol
// provider. It holds no per-login state: the pool carries live connections,
// the caller carries the session token, and every response re-emits whatever
// the next request needs.
type Service struct {
	pool  *pool.Pool
	creds telegram.Credentials
	log   zerolog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithLogger sets a scoped logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = logger
	}
}

// NewService initializes the auth orchestrator with its dependencies.
func NewService(clientPool *pool.Pool, creds telegram.Credentials, options ...ServiceOption) (*Service, error) {
	if clientPool == nil {
		return nil, errors.New("[NewService] client pool is required")
	}
	if creds.APIID == 0 || creds.APIHash == "" {
		return nil, errors.New("[NewService] telegram api credentials are required")
	}

	s := &Service{
		pool:  clientPool,
		creds: creds,
		log:   log.With().Str("component", "auth").Logger(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// CheckSession reports whether the presented session still belongs to an
// authorized connection. It never fails the request: any problem degrades to
// "not connected".
func (s *Service) CheckSession(ctx context.Context, sessionString string) Result {
	if sessionString == "" {
		return Result{
			IsConnected:  false,
			ClearSession: true,
			Message:      "No session found",
		}
	}

	client, err := s.pool.Acquire(ctx, sessionString, false)
	if err != nil {
		s.log.Error().Err(err).Msg("session check failed to acquire client")
		return Result{IsConnected: false, Error: err.Error()}
	}

	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session check failed to query authorization")
		return Result{IsConnected: false, Error: err.Error()}
	}
	if !authorized {
		return Result{IsConnected: false, Message: "Session exists but not authorized"}
	}

	res := Result{
		Success:     true,
		IsConnected: true,
		Message:     "Session valid and connected",
	}
	res.SessionString = s.exportSession(client)
	return res
}

// SendCode starts a login flow: it validates the phone number, issues the
// provider send-code operation and returns the opaque code hash together
// with the rotated session token.
//
// Restart-required triggers exactly one retry on a forced-new client.
// Rate-limiting is surfaced verbatim with the provider's wait duration.
func (s *Service) SendCode(ctx context.Context, sessionString, phoneNumber string) (Result, error) {
	phone, err := NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return Result{}, err
	}

	client, err := s.pool.Acquire(ctx, sessionString, false)
	if err != nil {
		return Result{}, errors.Wrap(err, "[Service.SendCode] acquire client")
	}

	// A leftover authorized client would silently bypass the fresh login, so
	// log it out first. Best-effort: a logout failure must not stop the flow.
	if authorized, aerr := client.IsAuthorized(ctx); aerr == nil && authorized {
		s.log.Warn().Msg("client already authorized, logging out to start fresh auth flow")
		if lerr := client.LogOut(ctx); lerr != nil {
			s.log.Warn().Err(lerr).Msg("error during pre-send-code logout, continuing anyway")
		}
	}

	s.log.Info().Str("phone", MaskPhoneNumber(phone)).Msg("sending login code")
	sent, err := client.SendCode(ctx, phone, s.creds, telegram.DefaultCodeSettings())
	if err != nil {
		return s.recoverSendCode(ctx, phone, err)
	}
	return s.sentCodeResult(client, sent, "Code sent successfully")
}

// recoverSendCode classifies a send-code failure and performs the single
// bounded recovery the flow allows.
func (s *Service) recoverSendCode(ctx context.Context, phone string, sendErr error) (Result, error) {
	if telegram.IsFloodWait(sendErr) {
		return floodWaitResult(sendErr), nil
	}
	if !telegram.IsAuthRestart(sendErr) {
		return Result{}, errors.Wrap(sendErr, "[Service.SendCode] send code")
	}

	s.log.Info().Msg("AUTH_RESTART detected, retrying once with a fresh client")
	fresh, err := s.pool.Acquire(ctx, "", true)
	if err != nil {
		s.log.Error().Err(err).Msg("AUTH_RESTART recovery failed to create fresh client")
		return authRestartResult(), nil
	}

	sent, err := fresh.SendCode(ctx, phone, s.creds, telegram.DefaultCodeSettings())
	if err != nil {
		s.log.Error().Err(err).Msg("AUTH_RESTART recovery failed")
		return authRestartResult(), nil
	}

	res, err := s.sentCodeResult(fresh, sent, "Code sent successfully (after auth restart)")
	if err != nil {
		return res, err
	}
	// The previously issued token is dead; the caller must replace it with
	// the fresh one.
	res.ClearSession = true
	return res, nil
}

// VerifyCode completes the login with the delivered one-time code. Re-entry
// on an already-authorized session short-circuits to success.
func (s *Service) VerifyCode(ctx context.Context, sessionString, phoneNumber, phoneCodeHash, phoneCode, password string) (Result, error) {
	if phoneNumber == "" || phoneCodeHash == "" || phoneCode == "" {
		return Result{}, MissingVerifyFieldsErr
	}
	code, err := NormalizeCode(phoneCode)
	if err != nil {
		return Result{}, err
	}
	phone, err := NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return Result{}, err
	}

	client, err := s.pool.Acquire(ctx, sessionString, false)
	if err != nil {
		return Result{}, errors.Wrap(err, "[Service.VerifyCode] acquire client")
	}

	if authorized, aerr := client.IsAuthorized(ctx); aerr == nil && authorized {
		res := Result{Success: true, Message: "Already authenticated"}
		res.SessionString = s.exportSession(client)
		return res, nil
	}

	err = client.SignIn(ctx, phone, phoneCodeHash, code)
	switch {
	case err == nil:
		res := Result{Success: true, Message: "Authentication successful"}
		res.SessionString = s.exportSession(client)
		return res, nil

	case telegram.IsPasswordRequired(err):
		if password == "" {
			res := Result{
				Success:          false,
				PasswordRequired: true,
				Message:          "2FA password required",
			}
			res.SessionString = s.exportSession(client)
			return res, nil
		}
		// SRP password verification is a known gap, reported explicitly
		// rather than attempted half-way.
		return Result{}, TwoFactorUnimplementedErr

	case telegram.IsPhoneCodeExpired(err):
		return Result{
			CodeExpired: true,
			Error:       "Verification code has expired. Please request a new code.",
		}, nil

	case telegram.IsPhoneCodeInvalid(err):
		return Result{
			CodeInvalid: true,
			Error:       "Invalid verification code. Please check and try again.",
		}, nil

	default:
		return Result{}, errors.Wrap(err, "[Service.VerifyCode] sign in")
	}
}

// Logout ends the session. It is idempotent and always emits the clear
// signal, even when no session existed or the provider logout failed.
func (s *Service) Logout(ctx context.Context, sessionString string) Result {
	res := Result{Success: true, ClearSession: true}

	if sessionString == "" {
		res.Message = "No active session to logout from"
		return res
	}

	client, err := s.pool.Acquire(ctx, sessionString, false)
	if err != nil {
		s.log.Error().Err(err).Msg("logout failed to acquire client")
		s.pool.Evict(ctx, sessionString)
		return Result{ClearSession: true, Error: err.Error()}
	}

	if client.Connected() {
		if lerr := client.LogOut(ctx); lerr != nil {
			s.log.Warn().Err(lerr).Msg("error during provider logout, continuing")
		}
	}
	s.pool.Evict(ctx, sessionString)

	res.Message = "Successfully logged out"
	return res
}

// exportSession serializes the client's current state, swallowing failures:
// a response without a rotated token is preferable to failing the operation.
func (s *Service) exportSession(client telegram.Client) string {
	sessionString, err := client.ExportSession()
	if err != nil {
		s.log.Error().Err(err).Msg("error saving session state")
		return ""
	}
	return sessionString
}

func (s *Service) sentCodeResult(client telegram.Client, sent telegram.SentCode, message string) (Result, error) {
	if sent.PhoneCodeHash == "" {
		return Result{}, MissingCodeHashErr
	}
	res := Result{
		Success:       true,
		Message:       message,
		PhoneCodeHash: sent.PhoneCodeHash,
	}
	res.SessionString = s.exportSession(client)
	return res, nil
}

func authRestartResult() Result {
	return Result{
		AuthRestart: true,
		Error:       "Authentication restart required. Please try again in a few moments.",
	}
}

func floodWaitResult(err error) Result {
	res := Result{FloodWait: true}
	if seconds, ok := telegram.FloodWaitSeconds(err); ok {
		res.WaitSeconds = seconds
		res.Error = fmt.Sprintf("Too many attempts. Please wait %d seconds before trying again.", seconds)
	} else {
		res.Error = "Too many attempts. Please wait before trying again."
	}
	return res
}

// MaskPhoneNumber hides all but the dialing prefix for log and diagnostics
// output.
func MaskPhoneNumber(phone string) string {
	if len(phone) <= 5 {
		return phone
	}
	return phone[:5] + "***"
}
