package auth_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/telegate/telegate/auth"
	"github.com/telegate/telegate/pool"
	"github.com/telegate/telegate/telegram"
	"github.com/telegate/telegate/telegram/telegramfakes"
)

const (
	testPhone   = "+15551234567"
	testHash    = "opaque-code-hash"
	testCode    = "13579"
	testSession = "restored-session-material-0123456789abcdef"
)

var testCreds = telegram.Credentials{APIID: 12345, APIHash: "test-hash"}

type testFixture struct {
	factory *telegramfakes.FakeFactory
	pool    *pool.Pool
	service *auth.Service
}

func setupTestFixture(t *testing.T, clients ...*telegramfakes.FakeClient) *testFixture {
	t.Helper()

	factory := telegramfakes.NewFakeFactory(clients...)
	clientPool := pool.New(factory.Factory(), testCreds)
	service, err := auth.NewService(clientPool, testCreds)
	require.NoError(t, err)

	return &testFixture{factory: factory, pool: clientPool, service: service}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	factory := telegramfakes.NewFakeFactory()
	clientPool := pool.New(factory.Factory(), testCreds)

	_, err := auth.NewService(nil, testCreds)
	require.Error(t, err)

	_, err = auth.NewService(clientPool, telegram.Credentials{})
	require.Error(t, err)

	_, err = auth.NewService(clientPool, testCreds)
	require.NoError(t, err)
}

func TestSendCodeRejectsMalformedPhoneNumbers(t *testing.T) {
	cases := []struct {
		name  string
		phone string
		want  error
	}{
		{"empty", "", auth.PhoneRequiredErr},
		{"whitespace only", "   ", auth.PhoneRequiredErr},
		{"missing plus", "15551234567", auth.InvalidPhoneErr},
		{"letters", "+1555abc4567", auth.InvalidPhoneErr},
		{"punctuation", "+1 (555) 123-4567", auth.InvalidPhoneErr},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)

			_, err := f.service.SendCode(context.Background(), "", tc.phone)
			require.ErrorIs(t, err, tc.want)
			// Rejected before any pool or network activity.
			require.Equal(t, 0, f.factory.CallCount())
		})
	}
}

func TestSendCodeAcceptsEmbeddedWhitespace(t *testing.T) {
	f := setupTestFixture(t)

	res, err := f.service.SendCode(context.Background(), "", " +1555 123 4567 ")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotEmpty(t, res.PhoneCodeHash)
}

func TestSendCodeHappyPath(t *testing.T) {
	client := &telegramfakes.FakeClient{
		SendCodeRes: telegram.SentCode{PhoneCodeHash: testHash},
		Session:     "rotated-session",
	}
	f := setupTestFixture(t, client)

	res, err := f.service.SendCode(context.Background(), "", testPhone)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, testHash, res.PhoneCodeHash)
	require.Equal(t, "rotated-session", res.SessionString)
	require.False(t, res.ClearSession)
	require.Equal(t, 1, client.SendCodeCalls)
}

func TestSendCodeLogsOutAlreadyAuthorizedClient(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	f := setupTestFixture(t, client)

	res, err := f.service.SendCode(context.Background(), testSession, testPhone)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, client.LogOutCalls)
}

func TestSendCodeContinuesWhenDefensiveLogoutFails(t *testing.T) {
	client := &telegramfakes.FakeClient{
		Authorized: true,
		Session:    testSession,
		LogOutErr:  errors.New("logout refused"),
	}
	f := setupTestFixture(t, client)

	res, err := f.service.SendCode(context.Background(), testSession, testPhone)
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestSendCodeAuthRestartRecoversOnce(t *testing.T) {
	failing := &telegramfakes.FakeClient{
		SendCodeErr: telegram.NewProviderError(telegram.CodeAuthRestart, "AUTH_RESTART"),
	}
	fresh := &telegramfakes.FakeClient{
		SendCodeRes: telegram.SentCode{PhoneCodeHash: testHash},
		Session:     "fresh-session",
	}
	f := setupTestFixture(t, failing, fresh)

	res, err := f.service.SendCode(context.Background(), "", testPhone)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, testHash, res.PhoneCodeHash)

	// Clear-then-set: the stale token is explicitly discarded alongside the
	// replacement.
	require.True(t, res.ClearSession)
	require.Equal(t, "fresh-session", res.SessionString)

	require.Equal(t, 1, failing.SendCodeCalls)
	require.Equal(t, 1, fresh.SendCodeCalls)
	require.Equal(t, 2, f.factory.CallCount())
}

func TestSendCodeAuthRestartRetryFailure(t *testing.T) {
	failing := &telegramfakes.FakeClient{
		SendCodeErr: telegram.NewProviderError(telegram.CodeAuthRestart, "AUTH_RESTART"),
	}
	alsoFailing := &telegramfakes.FakeClient{
		SendCodeErr: telegram.NewProviderError(telegram.CodeAuthRestart, "AUTH_RESTART"),
	}
	f := setupTestFixture(t, failing, alsoFailing)

	res, err := f.service.SendCode(context.Background(), "", testPhone)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.True(t, res.AuthRestart)
	require.Empty(t, res.SessionString)

	// Exactly one retry, never more.
	require.Equal(t, 1, failing.SendCodeCalls)
	require.Equal(t, 1, alsoFailing.SendCodeCalls)
}

func TestSendCodeFloodWaitExplicitSeconds(t *testing.T) {
	client := &telegramfakes.FakeClient{SendCodeErr: telegram.NewFloodWait(42)}
	f := setupTestFixture(t, client)

	res, err := f.service.SendCode(context.Background(), "", testPhone)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.True(t, res.FloodWait)
	require.Equal(t, 42, res.WaitSeconds)
	require.Contains(t, res.Error, "42 seconds")
}

func TestSendCodeFloodWaitParsedFromMessage(t *testing.T) {
	client := &telegramfakes.FakeClient{
		SendCodeErr: telegram.NewProviderError(telegram.CodeFloodWait, "A wait of FLOOD_WAIT_300 is required"),
	}
	f := setupTestFixture(t, client)

	res, err := f.service.SendCode(context.Background(), "", testPhone)
	require.NoError(t, err)
	require.True(t, res.FloodWait)
	require.Equal(t, 300, res.WaitSeconds)
}

func TestSendCodeGenericFailureSurfaces(t *testing.T) {
	client := &telegramfakes.FakeClient{SendCodeErr: errors.New("dc migrating")}
	f := setupTestFixture(t, client)

	_, err := f.service.SendCode(context.Background(), "", testPhone)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dc migrating")
}

func TestVerifyCodeRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name     string
		phone    string
		codeHash string
		code     string
		want     error
	}{
		{name: "missing phone", phone: "", codeHash: testHash, code: testCode, want: auth.MissingVerifyFieldsErr},
		{name: "missing hash", phone: testPhone, codeHash: "", code: testCode, want: auth.MissingVerifyFieldsErr},
		{name: "missing code", phone: testPhone, codeHash: testHash, code: "", want: auth.MissingVerifyFieldsErr},
		{name: "non-numeric code", phone: testPhone, codeHash: testHash, code: "12a45", want: auth.NonNumericCodeErr},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)

			_, err := f.service.VerifyCode(context.Background(), "", tc.phone, tc.codeHash, tc.code, "")
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, 0, f.factory.CallCount())
		})
	}
}

func TestVerifyCodeHappyPath(t *testing.T) {
	client := &telegramfakes.FakeClient{Session: "authorized-session"}
	f := setupTestFixture(t, client)

	res, err := f.service.VerifyCode(context.Background(), testSession, testPhone, testHash, " 13579 ", "")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "authorized-session", res.SessionString)
	require.Equal(t, 1, client.SignInCalls)
	require.True(t, client.Authorized)
}

func TestVerifyCodeIdempotentWhenAlreadyAuthorized(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	f := setupTestFixture(t, client)

	res, err := f.service.VerifyCode(context.Background(), testSession, testPhone, testHash, testCode, "")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Already authenticated", res.Message)
	require.Equal(t, 0, client.SignInCalls)
}

func TestVerifyCodePasswordRequired(t *testing.T) {
	client := &telegramfakes.FakeClient{
		SignInErr: telegram.NewProviderError(telegram.CodePasswordRequired, "SESSION_PASSWORD_NEEDED"),
		Session:   testSession,
	}
	f := setupTestFixture(t, client)

	res, err := f.service.VerifyCode(context.Background(), testSession, testPhone, testHash, testCode, "")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.True(t, res.PasswordRequired)
	// The (possibly updated) token still travels so the password resubmit
	// reaches the same connection.
	require.Equal(t, testSession, res.SessionString)
}

func TestVerifyCodeWithPasswordIsUnimplemented(t *testing.T) {
	client := &telegramfakes.FakeClient{
		SignInErr: telegram.NewProviderError(telegram.CodePasswordRequired, "SESSION_PASSWORD_NEEDED"),
	}
	f := setupTestFixture(t, client)

	_, err := f.service.VerifyCode(context.Background(), testSession, testPhone, testHash, testCode, "hunter2")
	require.ErrorIs(t, err, auth.TwoFactorUnimplementedErr)
}

func TestVerifyCodeExpired(t *testing.T) {
	client := &telegramfakes.FakeClient{
		SignInErr: telegram.NewProviderError(telegram.CodePhoneCodeExpired, "PHONE_CODE_EXPIRED"),
	}
	f := setupTestFixture(t, client)

	res, err := f.service.VerifyCode(context.Background(), testSession, testPhone, testHash, testCode, "")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.True(t, res.CodeExpired)
	require.False(t, res.CodeInvalid)
}

func TestVerifyCodeInvalid(t *testing.T) {
	client := &telegramfakes.FakeClient{
		SignInErr: telegram.NewProviderError(telegram.CodePhoneCodeInvalid, "PHONE_CODE_INVALID"),
	}
	f := setupTestFixture(t, client)

	res, err := f.service.VerifyCode(context.Background(), testSession, testPhone, testHash, testCode, "")
	require.NoError(t, err)
	require.True(t, res.CodeInvalid)
	require.False(t, res.CodeExpired)
}

func TestLogoutWithoutSessionIsSuccess(t *testing.T) {
	f := setupTestFixture(t)

	res := f.service.Logout(context.Background(), "")
	require.True(t, res.Success)
	require.True(t, res.ClearSession)
	require.Equal(t, 0, f.factory.CallCount())
}

func TestLogoutEndsSessionAndEvicts(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	f := setupTestFixture(t, client)

	// Seed the pool entry.
	_, err := f.pool.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Equal(t, 1, f.pool.Len())

	res := f.service.Logout(context.Background(), testSession)
	require.True(t, res.Success)
	require.True(t, res.ClearSession)
	require.Equal(t, 1, client.LogOutCalls)
	require.Equal(t, 0, f.pool.Len())
}

func TestLogoutIsIdempotent(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	f := setupTestFixture(t, client)

	first := f.service.Logout(context.Background(), testSession)
	require.True(t, first.Success)

	second := f.service.Logout(context.Background(), testSession)
	require.True(t, second.Success)
	require.True(t, second.ClearSession)
}

func TestLogoutToleratesProviderLogoutFailure(t *testing.T) {
	client := &telegramfakes.FakeClient{
		Authorized: true,
		Session:    testSession,
		LogOutErr:  errors.New("provider unavailable"),
	}
	f := setupTestFixture(t, client)

	res := f.service.Logout(context.Background(), testSession)
	require.True(t, res.Success)
	require.True(t, res.ClearSession)
	require.Equal(t, 0, f.pool.Len())
}

func TestCheckSessionWithoutToken(t *testing.T) {
	f := setupTestFixture(t)

	res := f.service.CheckSession(context.Background(), "")
	require.False(t, res.IsConnected)
	require.True(t, res.ClearSession)
	require.Equal(t, 0, f.factory.CallCount())
}

func TestCheckSessionAuthorized(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	f := setupTestFixture(t, client)

	res := f.service.CheckSession(context.Background(), testSession)
	require.True(t, res.IsConnected)
	require.Equal(t, testSession, res.SessionString)
	require.False(t, res.ClearSession)
}

func TestCheckSessionUnauthorized(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: false, Session: testSession}
	f := setupTestFixture(t, client)

	res := f.service.CheckSession(context.Background(), testSession)
	require.False(t, res.IsConnected)
	require.False(t, res.ClearSession)
	require.Empty(t, res.SessionString)
}

func TestMaskPhoneNumber(t *testing.T) {
	require.Equal(t, "+1555***", auth.MaskPhoneNumber(testPhone))
	require.Equal(t, "+155", auth.MaskPhoneNumber("+155"))
}
