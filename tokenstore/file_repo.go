package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileRepo persists credentials as a JSON file with owner-only permissions.
type FileRepo struct {
	path string
}

// NewFileRepo creates a file-backed token repo at path. The parent directory
// is created on first Save.
func NewFileRepo(path string) *FileRepo {
	return &FileRepo{path: path}
}

func (r *FileRepo) Load() (Credentials, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, errors.Wrap(err, "[FileRepo.Load] os.ReadFile")
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, errors.Wrap(err, "[FileRepo.Load] json.Unmarshal")
	}
	if creds.IsZero() {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}

func (r *FileRepo) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileRepo.Save] os.MkdirAll")
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileRepo.Save] json.MarshalIndent")
	}

	// Write-then-rename so a crash mid-write cannot leave a torn file.
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileRepo.Save] os.WriteFile")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "[FileRepo.Save] os.Rename")
	}
	return nil
}

func (r *FileRepo) Clear() error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileRepo.Clear] os.Remove")
	}
	return nil
}

var _ Repo = (*FileRepo)(nil)
