package auth

// Result is the outcome of one auth operation together with the session
// transport signals the caller must relay. The orchestrator is stateless
// across requests; everything the next request needs travels in here.
type Result struct {
	Success     bool
	IsConnected bool
	Message     string
	Error       string

	// SessionString, when non-empty, is the rotated token the caller must
	// store and present on the next request.
	SessionString string

	// ClearSession instructs the caller to discard its stored token. When
	// both signals are present, clear wins.
	ClearSession bool

	// Action-specific outcome flags.
	PhoneCodeHash    string
	PasswordRequired bool
	CodeExpired      bool
	CodeInvalid      bool
	FloodWait        bool
	WaitSeconds      int
	AuthRestart      bool
}
