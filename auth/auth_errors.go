package auth

import "errors"

var (
	PhoneRequiredErr          = errors.New("phone number is required")
	InvalidPhoneErr           = errors.New("phone number must start with country code (e.g. +1) and contain only digits")
	MissingVerifyFieldsErr    = errors.New("phone number, code hash, and verification code are required")
	NonNumericCodeErr         = errors.New("verification code should contain only digits")
	TwoFactorUnimplementedErr = errors.New("2FA authentication is not fully implemented yet")
	MissingCodeHashErr        = errors.New("failed to get phone code hash from provider")
)
