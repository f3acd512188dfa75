package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Consolidated auth endpoint: GET checks the session, POST dispatches on
	// the action discriminator (send-code, verify-code, logout).
	RouteAuth = "/api/telegram/auth"

	RouteHealth = "/health"
)

// Action discriminator values accepted by POST RouteAuth.
const (
	ActionSendCode   = "send-code"
	ActionVerifyCode = "verify-code"
	ActionLogout     = "logout"
)
