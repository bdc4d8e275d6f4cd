package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// KeyInfo describes a local SSH key pair.
type KeyInfo struct {
	Path       string // private key
	Type       string // ed25519, ecdsa or rsa
	PublicPath string
	HasPublic  bool
}

// KeyFinder locates the user's SSH keys under an .ssh directory.
type KeyFinder struct {
	fs  afero.Fs
	dir string
}

// NewKeyFinder looks for keys in dir. An empty dir means ~/.ssh.
func NewKeyFinder(fs afero.Fs, dir string) *KeyFinder {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".ssh")
		}
	}
	return &KeyFinder{fs: fs, dir: dir}
}

// keyPaths returns the standard key locations in preference order.
func (k *KeyFinder) keyPaths() []string {
	if k.dir == "" {
		return nil
	}
	return []string{
		filepath.Join(k.dir, "id_ed25519"),
		filepath.Join(k.dir, "id_ecdsa"),
		filepath.Join(k.dir, "id_rsa"),
	}
}

// FindLocalKeys returns every standard key that exists.
func (k *KeyFinder) FindLocalKeys() []KeyInfo {
	var keys []KeyInfo
	for _, path := range k.keyPaths() {
		if _, err := k.fs.Stat(path); err != nil {
			continue
		}
		pubPath := path + ".pub"
		_, pubErr := k.fs.Stat(pubPath)
		keys = append(keys, KeyInfo{
			Path:       path,
			Type:       inferKeyType(path),
			PublicPath: pubPath,
			HasPublic:  pubErr == nil,
		})
	}
	return keys
}

// Preferred returns the best key with a public half (ed25519 > ecdsa > rsa),
// or nil when there is none.
func (k *KeyFinder) Preferred() *KeyInfo {
	for _, key := range k.FindLocalKeys() {
		if key.HasPublic {
			return &key
		}
	}
	return nil
}

// ReadPublicKey loads and parses an authorized_keys style public key.
func (k *KeyFinder) ReadPublicKey(pubPath string) (ssh.PublicKey, error) {
	data, err := afero.ReadFile(k.fs, pubPath)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't read public key %s", pubPath),
			"Check that the file exists and is readable.")
	}
	key, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("%s isn't a valid SSH public key", pubPath),
			"Regenerate it with: ssh-keygen -y -f "+strings.TrimSuffix(pubPath, ".pub")+" > "+pubPath)
	}
	return key, nil
}

func inferKeyType(path string) string {
	base := filepath.Base(path)
	switch {
	case strings.Contains(base, "ed25519"):
		return "ed25519"
	case strings.Contains(base, "ecdsa"):
		return "ecdsa"
	case strings.Contains(base, "rsa"):
		return "rsa"
	default:
		return "unknown"
	}
}
