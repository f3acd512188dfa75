package telegramfakes

import (
	"context"
	"sync"

	"github.com/telegate/telegate/telegram"
)

var _ telegram.Client = (*FakeClient)(nil)

// FakeClient is a scriptable protocol client for tests. Zero value behaves as
// a healthy anonymous client: connects cleanly, is not authorized, signs in
// successfully.
type FakeClient struct {
	lock sync.Mutex

	// Scripted behavior
	ConnectErr    error
	AuthorizedErr error
	SendCodeRes   telegram.SentCode
	SendCodeErr   error
	SignInErr     error
	LogOutErr     error
	DisconnectErr error
	ExportErr     error
	Session       string

	// Observable state
	Authorized bool

	connected       bool
	ConnectCalls    int
	DisconnectCalls int
	AuthorizedCalls int
	SendCodeCalls   int
	SignInCalls     int
	LogOutCalls     int
	ExportCalls     int
}

func (c *FakeClient) Connect(_ context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.ConnectCalls++
	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	c.connected = true
	return nil
}

func (c *FakeClient) Disconnect(_ context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.DisconnectCalls++
	c.connected = false
	return c.DisconnectErr
}

func (c *FakeClient) Connected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.connected
}

// SetConnected overrides the link state, for simulating dropped connections.
func (c *FakeClient) SetConnected(connected bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.connected = connected
}

func (c *FakeClient) IsAuthorized(_ context.Context) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.AuthorizedCalls++
	if c.AuthorizedErr != nil {
		return false, c.AuthorizedErr
	}
	return c.Authorized, nil
}

func (c *FakeClient) SendCode(_ context.Context, _ string, _ telegram.Credentials, _ telegram.CodeSettings) (telegram.SentCode, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.SendCodeCalls++
	if c.SendCodeErr != nil {
		return telegram.SentCode{}, c.SendCodeErr
	}
	if c.SendCodeRes.PhoneCodeHash == "" {
		return telegram.SentCode{PhoneCodeHash: "fake-code-hash"}, nil
	}
	return c.SendCodeRes, nil
}

func (c *FakeClient) SignIn(_ context.Context, _, _, _ string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.SignInCalls++
	if c.SignInErr != nil {
		return c.SignInErr
	}
	c.Authorized = true
	return nil
}

func (c *FakeClient) LogOut(_ context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.LogOutCalls++
	if c.LogOutErr != nil {
		return c.LogOutErr
	}
	c.Authorized = false
	return nil
}

func (c *FakeClient) ExportSession() (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.ExportCalls++
	if c.ExportErr != nil {
		return "", c.ExportErr
	}
	if c.Session == "" {
		return "fake-session-string", nil
	}
	return c.Session, nil
}
