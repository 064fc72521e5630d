package repofake

import (
	"sync"

	"github.com/wanderinn/go-client/tokenstore"
)

// FakeTokenRepo is an in-memory token repo for testing.
type FakeTokenRepo struct {
	mu    sync.Mutex
	creds tokenstore.Credentials
	set   bool

	// Error hooks let tests simulate storage failures.
	LoadErr  error
	SaveErr  error
	ClearErr error
}

// NewFakeTokenRepo creates an empty in-memory token repo.
func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{}
}

func (r *FakeTokenRepo) Load() (tokenstore.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.LoadErr != nil {
		return tokenstore.Credentials{}, r.LoadErr
	}
	if !r.set {
		return tokenstore.Credentials{}, tokenstore.ErrNoCredentials
	}
	return r.creds, nil
}

func (r *FakeTokenRepo) Save(creds tokenstore.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.creds = creds
	r.set = true
	return nil
}

func (r *FakeTokenRepo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ClearErr != nil {
		return r.ClearErr
	}
	r.creds = tokenstore.Credentials{}
	r.set = false
	return nil
}

var _ tokenstore.Repo = (*FakeTokenRepo)(nil)
