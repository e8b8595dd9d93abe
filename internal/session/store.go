// Package session owns the signed-in seller: verifying credentials,
// persisting them between runs, and tearing everything down on logout.
package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/smileynet/campdesk/internal/campaign"
)

// EnvSessionFile overrides the session file location.
const EnvSessionFile = "CAMPDESK_SESSION_FILE"

const identityFile = "identity.age"

// Session is the current identity, its secret, and the profile the
// backend returned when the pair was last verified.
type Session struct {
	Identity string
	Secret   string
	Profile  *campaign.Profile
}

// record is the on-disk shape. The secret is age-encrypted to a local
// identity kept beside the session file.
type record struct {
	Identity     string            `json:"identity"`
	SealedSecret string            `json:"sealed_secret"`
	Profile      *campaign.Profile `json:"profile,omitempty"`
	SavedAt      time.Time         `json:"saved_at"`
}

// DefaultPath returns $CAMPDESK_SESSION_FILE, else
// $XDG_CONFIG_HOME/campdesk/session.json, else
// ~/.config/campdesk/session.json.
func DefaultPath() string {
	if p := os.Getenv(EnvSessionFile); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "campdesk-session.json")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "campdesk", "session.json")
}

// FileStore persists one session as JSON with owner-only permissions.
type FileStore struct {
	path         string
	identityPath string
}

// NewFileStore creates a store writing to path. An empty path uses
// DefaultPath.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	return &FileStore{
		path:         path,
		identityPath: filepath.Join(filepath.Dir(path), identityFile),
	}
}

// Path returns the session file location.
func (s *FileStore) Path() string { return s.path }

// Save writes sess, creating the directory (0700) and sealing key as
// needed.
func (s *FileStore) Save(sess Session) error {
	if sess.Identity == "" || sess.Secret == "" {
		return errors.New("session: identity and secret are required")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: creating directory %s: %w", dir, err)
	}

	id, err := s.identity(true)
	if err != nil {
		return err
	}
	sealed, err := seal([]byte(sess.Secret), id.Recipient())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record{
		Identity:     sess.Identity,
		SealedSecret: sealed,
		Profile:      sess.Profile,
		SavedAt:      time.Now().UTC().Truncate(time.Second),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshaling: %w", err)
	}
	data = append(data, '\n')

	return writeAtomic(s.path, data)
}

// writeAtomic replaces path with data through a 0600 temp file in the
// same directory. Readers see the old content or the new, never a part.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	return nil
}

// Load reads the persisted session. found is false when there is none.
func (s *FileStore) Load() (sess Session, found bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("session: reading %s: %w", s.path, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Session{}, false, fmt.Errorf("session: parsing %s: %w", s.path, err)
	}
	if rec.Identity == "" || rec.SealedSecret == "" {
		return Session{}, false, fmt.Errorf("session: %s is incomplete", s.path)
	}

	id, err := s.identity(false)
	if err != nil {
		return Session{}, false, err
	}
	secret, err := unseal(rec.SealedSecret, id)
	if err != nil {
		return Session{}, false, err
	}
	return Session{Identity: rec.Identity, Secret: string(secret), Profile: rec.Profile}, true, nil
}

// Clear removes the session file. The sealing key stays for reuse.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: removing %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) identity(create bool) (*age.X25519Identity, error) {
	data, err := os.ReadFile(s.identityPath)
	switch {
	case err == nil:
		id, perr := age.ParseX25519Identity(strings.TrimSpace(string(data)))
		if perr != nil {
			return nil, fmt.Errorf("session: parsing %s: %w", s.identityPath, perr)
		}
		return id, nil
	case errors.Is(err, os.ErrNotExist) && create:
		id, gerr := age.GenerateX25519Identity()
		if gerr != nil {
			return nil, fmt.Errorf("session: generating sealing key: %w", gerr)
		}
		if werr := writeAtomic(s.identityPath, []byte(id.String()+"\n")); werr != nil {
			return nil, werr
		}
		return id, nil
	default:
		return nil, fmt.Errorf("session: reading %s: %w", s.identityPath, err)
	}
}

func seal(plaintext []byte, recipient age.Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("session: creating encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return "", fmt.Errorf("session: sealing secret: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("session: finalizing seal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func unseal(sealed string, id age.Identity) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("session: decoding sealed secret: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), id)
	if err != nil {
		return nil, fmt.Errorf("session: unsealing secret: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("session: reading unsealed secret: %w", err)
	}
	return out, nil
}
