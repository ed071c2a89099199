// Package wallet manages key material files and reads wallet balances.
package wallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// SecretKeyLen is the length of an ed25519 secret key (seed + public key).
const SecretKeyLen = 64

// Key material errors.
var (
	ErrInvalidSecret = errors.New("invalid secret key")
	ErrKeyMismatch   = errors.New("public key does not match secret key")
	ErrEmptyKeyFile  = errors.New("key file has no secret key")
	ErrKeyFileExists = errors.New("key file already exists")
)

// KeyFile is the on-disk key material layout: a base58 public key and the
// 64-byte secret key as a JSON array of integers.
type KeyFile struct {
	PublicKey string `json:"publicKey"`
	SecretKey []int  `json:"secretKey"`
}

// Generate creates a new random keypair.
func Generate() types.Account {
	return types.NewAccount()
}

// FromSecretBytes builds an account from a 64-byte secret key. The public
// half must be the one the seed half derives.
func FromSecretBytes(secret []byte) (types.Account, error) {
	if len(secret) != SecretKeyLen {
		return types.Account{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSecret, SecretKeyLen, len(secret))
	}
	derived := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], secret[ed25519.SeedSize:]) {
		return types.Account{}, fmt.Errorf("%w: public half does not match seed", ErrKeyMismatch)
	}
	acc, err := types.AccountFromBytes(secret)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return acc, nil
}

// FromBase58Secret decodes a base58 encoded 64-byte secret key, the format
// wallets export private keys in.
func FromBase58Secret(s string) (types.Account, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Account{}, fmt.Errorf("%w: empty", ErrInvalidSecret)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return FromSecretBytes(raw)
}

// Encode converts acc to its key file form.
func Encode(acc types.Account) KeyFile {
	secret := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		secret[i] = int(b)
	}
	return KeyFile{
		PublicKey: acc.PublicKey.ToBase58(),
		SecretKey: secret,
	}
}

// Decode validates kf and returns its account.
func (kf *KeyFile) Decode() (types.Account, error) {
	if len(kf.SecretKey) == 0 {
		return types.Account{}, ErrEmptyKeyFile
	}
	raw := make([]byte, len(kf.SecretKey))
	for i, v := range kf.SecretKey {
		if v < 0 || v > 255 {
			return types.Account{}, fmt.Errorf("%w: byte out of range at %d: %d", ErrInvalidSecret, i, v)
		}
		raw[i] = byte(v)
	}

	acc, err := FromSecretBytes(raw)
	if err != nil {
		return types.Account{}, err
	}
	if kf.PublicKey != "" && kf.PublicKey != acc.PublicKey.ToBase58() {
		return types.Account{}, fmt.Errorf("%w: file says %s, secret derives %s", ErrKeyMismatch, kf.PublicKey, acc.PublicKey.ToBase58())
	}
	return acc, nil
}

// Save writes acc to path with owner-only permissions. Parent directories
// are created as needed.
func Save(path string, acc types.Account) error {
	data, err := json.MarshalIndent(Encode(acc), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// Create generates a keypair and saves it to path. An existing file is never
// overwritten.
func Create(path string) (types.Account, error) {
	if _, err := os.Stat(path); err == nil {
		return types.Account{}, fmt.Errorf("%w: %s", ErrKeyFileExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return types.Account{}, fmt.Errorf("stat key file: %w", err)
	}

	acc := Generate()
	if err := Save(path, acc); err != nil {
		return types.Account{}, err
	}
	return acc, nil
}

// Load reads the key file at path.
func Load(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("read key file: %w", err)
	}

	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return types.Account{}, fmt.Errorf("parse key file %s: %w", path, err)
	}
	return kf.Decode()
}
