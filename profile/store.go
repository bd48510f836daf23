package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the name of the config file inside the plugin directory.
const FileName = "s3_config.json"

// Store reads profiles from a config file. It holds no profile state between
// calls: every Load re-reads the file.
type Store struct {
	path   string
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used to report first-run seeding.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns a store backed by the file at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, op := range opts {
		op(s)
	}

	return s
}

// DefaultPath returns the config file location beside the running executable.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return FileName
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Join(filepath.Dir(exe), FileName)
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the backing file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)

	return err == nil
}

// Load reads the config file, writing the seed file first if none exists.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		seed := Seed()
		if err := s.Save(seed); err != nil {
			return nil, fmt.Errorf("creating default S3 config at %s: %w", s.path, err)
		}

		s.logger.Info("created default S3 config, edit it with your credentials", slog.String("path", s.path))

		return seed, nil
	}

	if err != nil {
		return nil, s.corrupt(err)
	}

	return s.parse(data)
}

func (s *Store) parse(data []byte) (*File, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, s.corrupt(err)
	}

	profiles, ok := raw["profiles"]
	if !ok || bytes.Equal(bytes.TrimSpace(profiles), []byte("null")) {
		return nil, s.corrupt(errors.New("missing 'profiles' mapping"))
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, s.corrupt(err)
	}

	for key, p := range f.Profiles {
		switch p.Driver {
		case "", DriverAWS, DriverMinio:
		default:
			return nil, s.corrupt(fmt.Errorf("profile '%s' has unknown driver '%s'", key, p.Driver))
		}
	}

	if f.DefaultProfile != "" {
		if _, ok := f.Profiles[f.DefaultProfile]; !ok {
			return nil, s.corrupt(fmt.Errorf("default_profile '%s' does not name a profile", f.DefaultProfile))
		}
	}

	return &f, nil
}

// Save writes the file as indented JSON, creating the parent directory if needed.
func (s *Store) Save(f *File) error {
	if f.Profiles == nil {
		f.Profiles = map[string]Profile{}
	}

	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(s.path, append(data, '\n'), 0o644)
}

// Names returns the sorted profile keys.
func (s *Store) Names() ([]string, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}

	return f.Names(), nil
}

// Choices returns the profile keys offered to the user, or a single
// "default" entry when the file cannot be read.
func (s *Store) Choices() []string {
	names, err := s.Names()
	if err != nil || len(names) == 0 {
		return []string{"default"}
	}

	return names
}

// Resolve returns the profile stored under key. An empty key selects the
// file's default profile.
func (s *Store) Resolve(key string) (Profile, error) {
	f, err := s.Load()
	if err != nil {
		return Profile{}, err
	}

	_, p, err := s.resolve(f, key)

	return p, err
}

// Open resolves key and rejects profiles whose credentials are still
// placeholders, before any connection is attempted. It returns the key the
// profile was found under.
func (s *Store) Open(key string) (string, Profile, error) {
	f, err := s.Load()
	if err != nil {
		return "", Profile{}, err
	}

	key, p, err := s.resolve(f, key)
	if err != nil {
		return "", Profile{}, err
	}

	if err := p.Check(key, s.path); err != nil {
		return "", Profile{}, err
	}

	return key, p, nil
}

func (s *Store) resolve(f *File, key string) (string, Profile, error) {
	if key == "" {
		if f.DefaultProfile == "" {
			return "", Profile{}, &Error{Kind: ErrNoProfileSpecified, Path: s.path, Available: f.Names()}
		}

		key = f.DefaultProfile
	}

	p, ok := f.Profiles[key]
	if !ok {
		return "", Profile{}, &Error{Kind: ErrProfileNotFound, Key: key, Path: s.path, Available: f.Names()}
	}

	return key, p, nil
}

func (s *Store) corrupt(cause error) error {
	return &Error{Kind: ErrConfigCorrupt, Path: s.path, Cause: cause}
}

func sortedKeys(m map[string]Profile) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
