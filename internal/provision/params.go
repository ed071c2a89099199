// Package provision creates a Token-2022 mint with transfer-fee and metadata
// extensions and mints its fixed supply.
// Flow: size accounts → build instructions → submit → mint supply
package provision

import (
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"

	"solana-taxed-token/internal/token2022"
)

// Placement selects where the token metadata lives.
type Placement string

const (
	// PlacementEmbedded stores metadata inside the mint account.
	PlacementEmbedded Placement = "embedded"
	// PlacementSeparate stores metadata in its own account.
	PlacementSeparate Placement = "separate"
)

// ParsePlacement parses a placement name; empty means embedded.
func ParsePlacement(s string) (Placement, error) {
	switch Placement(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlacementEmbedded:
		return PlacementEmbedded, nil
	case PlacementSeparate:
		return PlacementSeparate, nil
	default:
		return "", fmt.Errorf("%w: unknown metadata placement %q", ErrInvalidParams, s)
	}
}

// BaseSupply is the number of whole tokens minted at deployment.
const BaseSupply uint64 = 1_000_000_000

// maxDecimals keeps BaseSupply × 10^decimals within uint64.
const maxDecimals = 10

// Params describes one token deployment.
type Params struct {
	Name           string
	Symbol         string
	URI            string
	Decimals       uint8
	FeeBasisPoints uint16
	MaxFee         uint64
	Placement      Placement

	// MetadataProgram owns a separate metadata account. Zero means Token-2022.
	MetadataProgram common.PublicKey

	AdditionalFields []token2022.MetadataField
}

// Validate checks the parameters before any ledger call.
func (p *Params) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidParams)
	}
	if p.Decimals > maxDecimals {
		return fmt.Errorf("%w: decimals %d exceeds %d", ErrInvalidParams, p.Decimals, maxDecimals)
	}
	if p.FeeBasisPoints > token2022.MaxFeeBasisPoints {
		return fmt.Errorf("%w: %d", token2022.ErrInvalidFeeBasisPoints, p.FeeBasisPoints)
	}
	if _, err := ParsePlacement(string(p.Placement)); err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.AdditionalFields))
	for _, f := range p.AdditionalFields {
		if f.Key == "" {
			return fmt.Errorf("%w: additional metadata key is empty", ErrInvalidParams)
		}
		if seen[f.Key] {
			return fmt.Errorf("%w: duplicate metadata key %q", ErrInvalidParams, f.Key)
		}
		seen[f.Key] = true
	}
	return nil
}

func (p *Params) placement() Placement {
	if p.Placement == "" {
		return PlacementEmbedded
	}
	return p.Placement
}

func (p *Params) metadataProgram() common.PublicKey {
	if p.MetadataProgram == (common.PublicKey{}) {
		return token2022.ProgramID
	}
	return p.MetadataProgram
}

// TotalSupply returns BaseSupply × 10^decimals in base units.
func TotalSupply(decimals uint8) (uint64, error) {
	if decimals > maxDecimals {
		return 0, fmt.Errorf("%w: decimals %d exceeds %d", ErrInvalidParams, decimals, maxDecimals)
	}
	supply := BaseSupply
	for i := uint8(0); i < decimals; i++ {
		supply *= 10
	}
	return supply, nil
}
