package telegram

import "context"

// Credentials are the fixed application credentials issued by Telegram for
// this deployment. They are sourced from process configuration once, never
// per request.
type Credentials struct {
	APIID   int
	APIHash string
}

// CodeSettings mirrors the code-delivery options sent alongside a send-code
// request.
type CodeSettings struct {
	AllowFlashCall bool
	CurrentNumber  bool
	AllowAppHash   bool
}

// DefaultCodeSettings returns the fixed delivery settings used for every
// login flow: no flash calls, prefer the current number, allow app-hash
// delivery.
func DefaultCodeSettings() CodeSettings {
	return CodeSettings{
		AllowFlashCall: false,
		CurrentNumber:  true,
		AllowAppHash:   true,
	}
}

// SentCode is the provider's answer to a send-code request. The hash is
// opaque and must be echoed back on verification.
type SentCode struct {
	PhoneCodeHash string
}

// Client is one live, stateful protocol connection. Implementations wrap an
// actual MTProto client; this package only fixes the boundary the rest of the
// system programs against.
//
// Provider failures that the orchestration layer reacts to must be returned
// as *ProviderError so they are classified exactly once, here at the
// boundary.
type Client interface {
	// Connect establishes the connection. The implementation owns its own
	// fixed timeout and retry policy.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down. Safe to call on a dead client.
	Disconnect(ctx context.Context) error

	// Connected reports the current link state without network traffic.
	Connected() bool

	// IsAuthorized asks the provider whether this connection belongs to a
	// signed-in user.
	IsAuthorized(ctx context.Context) (bool, error)

	// SendCode asks the provider to deliver a one-time login code.
	SendCode(ctx context.Context, phoneNumber string, creds Credentials, settings CodeSettings) (SentCode, error)

	// SignIn completes the login with the delivered code.
	SignIn(ctx context.Context, phoneNumber, phoneCodeHash, phoneCode string) error

	// LogOut invalidates the authorization on the provider side.
	LogOut(ctx context.Context) error

	// ExportSession serializes the connection's full authentication state to
	// an opaque string. The result is never parsed by callers.
	ExportSession() (string, error)
}

// Factory restores a client from previously exported session state. An empty
// sessionString yields a fresh anonymous client. The returned client is not
// yet connected.
type Factory func(ctx context.Context, sessionString string, creds Credentials) (Client, error)
