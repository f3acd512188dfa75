package pool_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/telegate/telegate/pool"
	"github.com/telegate/telegate/telegram"
	"github.com/telegate/telegate/telegram/telegramfakes"
)

const testSession = "abcdefghijklmnopqrstuvwxyz0123456789-longer-than-the-key-prefix"

var testCreds = telegram.Credentials{APIID: 12345, APIHash: "test-hash"}

func newPool(factory *telegramfakes.FakeFactory, options ...pool.Option) *pool.Pool {
	return pool.New(factory.Factory(), testCreds, options...)
}

func TestKeyDerivation(t *testing.T) {
	require.Equal(t, "anonymous", pool.Key(""))
	require.Equal(t, "session_short", pool.Key("short"))

	long := pool.Key(testSession)
	require.Equal(t, "session_"+testSession[:32], long)

	// Tokens sharing a 32-byte prefix collapse onto one key.
	require.Equal(t, long, pool.Key(testSession[:32]+"completely-different-tail"))
}

func TestAcquireReusesWithinValidationWindow(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	factory := telegramfakes.NewFakeFactory(client)

	now := time.Now()
	p := newPool(factory, pool.WithNowFunc(func() time.Time { return now }))

	first, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Same(t, client, first)
	checksAfterCreate := client.AuthorizedCalls

	// Within the freshness window the pool must not re-query authorization.
	now = now.Add(time.Minute)
	second, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, checksAfterCreate, client.AuthorizedCalls)
	require.Equal(t, 1, factory.CallCount())
}

func TestAcquireRevalidatesStaleEntry(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	factory := telegramfakes.NewFakeFactory(client)

	now := time.Now()
	p := newPool(factory, pool.WithNowFunc(func() time.Time { return now }))

	_, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	checksAfterCreate := client.AuthorizedCalls

	now = now.Add(6 * time.Minute)
	reused, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Same(t, client, reused)
	require.Equal(t, checksAfterCreate+1, client.AuthorizedCalls)
	require.Equal(t, 1, factory.CallCount())
}

func TestAcquireReplacesDeauthorizedEntry(t *testing.T) {
	stale := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	replacement := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	factory := telegramfakes.NewFakeFactory(stale, replacement)

	now := time.Now()
	p := newPool(factory, pool.WithNowFunc(func() time.Time { return now }))

	_, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)

	// Authorization was lost provider-side; the stale revalidation must evict
	// and fall through to creation.
	stale.Authorized = false
	now = now.Add(6 * time.Minute)

	got, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Same(t, replacement, got)
	require.Equal(t, 1, stale.DisconnectCalls)
	require.Equal(t, 2, factory.CallCount())
}

func TestAcquireReplacesDisconnectedEntry(t *testing.T) {
	dead := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	replacement := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	factory := telegramfakes.NewFakeFactory(dead, replacement)

	p := newPool(factory)

	_, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)

	dead.SetConnected(false)

	got, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Same(t, replacement, got)
}

func TestAcquireForceNewEvictsHealthyEntry(t *testing.T) {
	healthy := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	replacement := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	factory := telegramfakes.NewFakeFactory(healthy, replacement)

	p := newPool(factory)

	first, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Same(t, healthy, first)

	second, err := p.Acquire(context.Background(), testSession, true)
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, 1, healthy.DisconnectCalls)
	require.Equal(t, 1, p.Len())
}

func TestAcquireForceNewSurvivesDisconnectError(t *testing.T) {
	stubborn := &telegramfakes.FakeClient{
		Authorized:    true,
		Session:       testSession,
		DisconnectErr: errors.New("network down"),
	}
	replacement := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	factory := telegramfakes.NewFakeFactory(stubborn, replacement)

	p := newPool(factory)

	_, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)

	got, err := p.Acquire(context.Background(), testSession, true)
	require.NoError(t, err)
	require.Same(t, replacement, got)
}

func TestAcquireAnonymousClientIsPooled(t *testing.T) {
	factory := telegramfakes.NewFakeFactory()
	p := newPool(factory)

	first, err := p.Acquire(context.Background(), "", false)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())

	// The anonymous pre-auth client must be reused during the login flow.
	second, err := p.Acquire(context.Background(), "", false)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, factory.CallCount())
}

func TestAcquireUnauthorizedSessionClientIsNotPooled(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: false, Session: testSession}
	factory := telegramfakes.NewFakeFactory(client)
	p := newPool(factory)

	got, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)
	require.Same(t, client, got)
	require.Equal(t, 0, p.Len())
}

func TestAcquireConnectFailurePropagates(t *testing.T) {
	client := &telegramfakes.FakeClient{ConnectErr: errors.New("dc unreachable")}
	factory := telegramfakes.NewFakeFactory(client)
	p := newPool(factory)

	_, err := p.Acquire(context.Background(), testSession, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dc unreachable")
	require.Equal(t, 0, p.Len())
}

func TestEvictIsIdempotent(t *testing.T) {
	client := &telegramfakes.FakeClient{Authorized: true, Session: testSession}
	factory := telegramfakes.NewFakeFactory(client)
	p := newPool(factory)

	_, err := p.Acquire(context.Background(), testSession, false)
	require.NoError(t, err)

	p.Evict(context.Background(), testSession)
	require.Equal(t, 0, p.Len())
	require.Equal(t, 1, client.DisconnectCalls)

	p.Evict(context.Background(), testSession)
	require.Equal(t, 0, p.Len())
}

func TestEvictAllToleratesDisconnectFailures(t *testing.T) {
	a := &telegramfakes.FakeClient{Authorized: true, DisconnectErr: errors.New("boom")}
	b := &telegramfakes.FakeClient{Authorized: true}
	factory := telegramfakes.NewFakeFactory(a, b)
	p := newPool(factory)

	_, err := p.Acquire(context.Background(), "session-one-material", false)
	require.NoError(t, err)
	_, err = p.Acquire(context.Background(), "session-two-material", false)
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())

	p.EvictAll(context.Background())
	require.Equal(t, 0, p.Len())
}

func TestConcurrentAcquireSameKeyYieldsOneEntry(t *testing.T) {
	factory := telegramfakes.NewFakeFactory()
	p := newPool(factory)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Acquire(context.Background(), "", false)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, p.Len())
}
