package config

import (
	"fmt"
	"sort"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"solana-taxed-token/internal/wallet"
)

// Account resolves the configured key material. It reads nothing remote.
func (c *KeyConfig) Account() (types.Account, error) {
	if err := c.Validate(); err != nil {
		return types.Account{}, err
	}
	if c.PrivateKey != "" {
		return wallet.FromBase58Secret(c.PrivateKey)
	}
	return wallet.Load(c.KeypairPath)
}

// ParsePublicKey decodes a base58 address, rejecting anything that is not
// 32 bytes.
func ParsePublicKey(s string) (common.PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != common.PublicKeyLength {
		return common.PublicKey{}, fmt.Errorf("invalid address %q: %d bytes", s, len(raw))
	}
	return common.PublicKeyFromBytes(raw), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
