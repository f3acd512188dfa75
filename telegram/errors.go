package telegram

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrorCode enumerates the provider conditions the orchestration layer
// reacts to. Anything else is surfaced generically.
type ErrorCode string

const (
	// CodeAuthRestart signals that the in-progress login attempt was
	// invalidated and must be retried on a fresh connection.
	CodeAuthRestart ErrorCode = "AUTH_RESTART"

	// CodeFloodWait signals rate limiting; the caller must wait before
	// retrying.
	CodeFloodWait ErrorCode = "FLOOD_WAIT"

	// CodePhoneCodeExpired signals the one-time code is no longer valid.
	CodePhoneCodeExpired ErrorCode = "PHONE_CODE_EXPIRED"

	// CodePhoneCodeInvalid signals the one-time code was wrong.
	CodePhoneCodeInvalid ErrorCode = "PHONE_CODE_INVALID"

	// CodePasswordRequired signals that a second factor is needed to
	// complete sign-in.
	CodePasswordRequired ErrorCode = "SESSION_PASSWORD_NEEDED"
)

// ProviderError is the closed tagged error type returned by Client
// implementations for recognized provider conditions. Seconds is only set for
// flood-wait errors that carried an explicit wait duration.
type ProviderError struct {
	Code    ErrorCode
	Message string
	Seconds int
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// NewProviderError builds a tagged provider error.
func NewProviderError(code ErrorCode, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// NewFloodWait builds a rate-limit error carrying an explicit wait duration.
func NewFloodWait(seconds int) *ProviderError {
	return &ProviderError{
		Code:    CodeFloodWait,
		Message: fmt.Sprintf("FLOOD_WAIT_%d", seconds),
		Seconds: seconds,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsAuthRestart reports whether err is the provider's restart-required signal.
func IsAuthRestart(err error) bool { return hasCode(err, CodeAuthRestart) }

// IsFloodWait reports whether err is the provider's rate-limit signal.
func IsFloodWait(err error) bool { return hasCode(err, CodeFloodWait) }

// IsPhoneCodeExpired reports whether the one-time code expired.
func IsPhoneCodeExpired(err error) bool { return hasCode(err, CodePhoneCodeExpired) }

// IsPhoneCodeInvalid reports whether the one-time code was wrong.
func IsPhoneCodeInvalid(err error) bool { return hasCode(err, CodePhoneCodeInvalid) }

// IsPasswordRequired reports whether sign-in needs a second factor.
func IsPasswordRequired(err error) bool { return hasCode(err, CodePasswordRequired) }

var floodWaitPattern = regexp.MustCompile(`FLOOD_WAIT_(\d+)`)

// FloodWaitSeconds extracts the wait the provider asked for. An explicit
// seconds value takes priority; otherwise the duration is parsed out of the
// message text. The second return is false when no duration is known.
func FloodWaitSeconds(err error) (int, bool) {
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Code != CodeFloodWait {
		return 0, false
	}
	if pe.Seconds > 0 {
		return pe.Seconds, true
	}
	if m := floodWaitPattern.FindStringSubmatch(pe.Message); m != nil {
		if seconds, err := strconv.Atoi(m[1]); err == nil {
			return seconds, true
		}
	}
	return 0, false
}
