// Package identity supplies the local player's persisted {id, nickname} pair.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"scorekit/core"
)

// ProfileFilename is the file created under the user's home directory by DefaultPath.
const ProfileFilename = ".scorekit-profile.json"

var adjectives = []string{
	"Swift", "Brave", "Clever", "Happy", "Lucky", "Mighty",
	"Quick", "Silent", "Fierce", "Gentle", "Bold", "Wise",
	"Agile", "Cosmic", "Electric", "Mystic", "Noble", "Rapid",
	"Stealth", "Turbo", "Ultra", "Vivid", "Wild", "Epic",
	"Mega", "Super", "Hyper", "Cyber", "Neon", "Pixel",
}

var animals = []string{
	"Panda", "Eagle", "Fox", "Tiger", "Wolf", "Bear",
	"Hawk", "Shark", "Dragon", "Phoenix", "Falcon", "Lion",
	"Cobra", "Viper", "Raven", "Owl", "Cat", "Dog",
	"Monkey", "Rabbit", "Turtle", "Dolphin", "Octopus", "Squid",
	"Mantis", "Spider", "Scorpion", "Rhino", "Hippo", "Giraffe",
}

// Generate returns a fresh identity: a UUIDv4 id and an Adjective+Animal nickname.
func Generate() core.Identity {
	return core.Identity{ID: core.PlayerID(uuid.NewString()), Nickname: pick(adjectives) + pick(animals)}
}

func pick(words []string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return words[0]
	}
	return words[n.Int64()]
}

// DefaultPath is the profile location in the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ProfileFilename), nil
}

// Static always returns the same identity.
type Static core.Identity

func (s Static) LoadOrCreate(context.Context) (core.Identity, error) { return core.Identity(s), nil }

// FileProvider loads the identity from a JSON file, creating it on first use.
// The result is cached, so the file is read at most once per provider.
type FileProvider struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	cached *core.Identity
}

type Option func(*FileProvider)

func WithLogger(l *slog.Logger) Option {
	return func(p *FileProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewFileProvider(path string, opts ...Option) *FileProvider {
	p := &FileProvider{path: path, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *FileProvider) Path() string { return p.path }

// LoadOrCreate returns the stored identity. A missing or unreadable profile is replaced by a
// generated one; failing to save it is logged and the generated identity is still returned.
func (p *FileProvider) LoadOrCreate(ctx context.Context) (core.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return *p.cached, nil
	}

	id, err := p.load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.logger.WarnContext(ctx, "player profile unreadable, generating a new one", "path", p.path, "error", err)
		}
		id = Generate()
		if err := p.save(id); err != nil {
			p.logger.WarnContext(ctx, "failed to save player profile", "path", p.path, "error", err)
		} else {
			p.logger.DebugContext(ctx, "player profile created", "path", p.path, "nickname", id.Nickname)
		}
	}
	p.cached = &id
	return id, nil
}

func (p *FileProvider) load() (core.Identity, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		return core.Identity{}, err
	}
	var id core.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return core.Identity{}, err
	}
	if strings.TrimSpace(string(id.ID)) == "" || strings.TrimSpace(id.Nickname) == "" {
		return core.Identity{}, errors.New("profile missing id or nickname")
	}
	return id, nil
}

func (p *FileProvider) save(id core.Identity) error {
	b, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}
