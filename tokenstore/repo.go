package tokenstore

import "github.com/pkg/errors"

// ErrNoCredentials is returned by Load when no credentials have been saved.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials is the pair of bearer tokens the platform issues. It is the
// only state persisted across process runs; identity is re-fetched each boot.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether either token is missing. A half-persisted pair is
// treated the same as no credentials at all.
func (c Credentials) IsZero() bool {
	return c.AccessToken == "" || c.RefreshToken == ""
}

// Repo is the single abstraction over durable token storage. The session
// store and the request gateway must share one Repo instance so that neither
// can observe tokens the other has already cleared.
type Repo interface {
	// Load returns the persisted credentials, or ErrNoCredentials.
	Load() (Credentials, error)
	// Save replaces the persisted credentials.
	Save(Credentials) error
	// Clear removes the persisted credentials. Clearing an empty store is
	// not an error.
	Clear() error
}
