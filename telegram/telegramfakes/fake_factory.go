package telegramfakes

import (
	"context"
	"sync"

	"github.com/telegate/telegate/telegram"
)

// FactoryCall records one factory invocation.
type FactoryCall struct {
	SessionString string
}

// FakeFactory hands out scripted clients in order. Once the script is
// exhausted it fabricates default FakeClients, so simple tests don't need to
// pre-seed anything.
type FakeFactory struct {
	lock    sync.Mutex
	scripts []*FakeClient
	next    int

	Err     error
	Calls   []FactoryCall
	Created []*FakeClient
}

func NewFakeFactory(clients ...*FakeClient) *FakeFactory {
	return &FakeFactory{scripts: clients}
}

// Factory adapts the fake to the telegram.Factory signature.
func (f *FakeFactory) Factory() telegram.Factory {
	return func(_ context.Context, sessionString string, _ telegram.Credentials) (telegram.Client, error) {
		f.lock.Lock()
		defer f.lock.Unlock()

		f.Calls = append(f.Calls, FactoryCall{SessionString: sessionString})
		if f.Err != nil {
			return nil, f.Err
		}

		var client *FakeClient
		if f.next < len(f.scripts) {
			client = f.scripts[f.next]
			f.next++
		} else {
			client = &FakeClient{Session: sessionString}
		}
		f.Created = append(f.Created, client)
		return client, nil
	}
}

// CallCount returns how many clients were requested.
func (f *FakeFactory) CallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.Calls)
}
