package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"cloudbox/drive-api/util"
)

// Identity is the locally captured display identity. This is not a
// security boundary, just a display-name capture the UI shows.
type Identity struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Token  string `json:"token"`
}

// State is the persisted local client state. Loaded once at start, saved
// on every mutation.
type State struct {
	mu   sync.Mutex
	path string
	user *Identity
}

// LoadState reads persisted state from path. A missing file yields an
// empty, logged-out state.
func LoadState(path string) (*State, error) {
	s := &State{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	var user Identity
	if err := json.Unmarshal(data, &user); err != nil {
		// Corrupt state falls back to logged-out instead of wedging the UI
		return s, nil
	}

	if user.Name != "" {
		s.user = &user
	}
	return s, nil
}

// User returns the logged-in identity, or nil.
func (s *State) User() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Login captures a display identity and persists it.
func (s *State) Login(name, email string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	avatar := ""
	if name != "" {
		avatar = strings.ToUpper(name[:1])
	}

	s.user = &Identity{
		Name:   name,
		Email:  email,
		Avatar: avatar,
		Token:  util.RandStr(16),
	}

	return s.user, s.save()
}

// Logout clears the identity and persists the empty state.
func (s *State) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	return s.save()
}

func (s *State) save() error {
	if s.user == nil {
		err := os.Remove(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	data, err := json.Marshal(s.user)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o600)
}
