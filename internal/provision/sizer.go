package provision

import (
	"context"
	"fmt"

	"solana-taxed-token/internal/solana"
	"solana-taxed-token/internal/token2022"
)

// Extensions carried by every provisioned mint.
var mintExtensions = []token2022.ExtensionType{
	token2022.ExtensionTransferFeeConfig,
	token2022.ExtensionMetadataPointer,
}

// Sizing holds account sizes and the rent each account is funded with.
type Sizing struct {
	Placement Placement

	// MintLen is the mint account size at creation.
	MintLen int
	// MetadataLen is the metadata TLV entry size: 4-byte header + payload.
	MetadataLen int

	// MintLamports funds the mint. Embedded placement funds it for
	// MintLen + MetadataLen since metadata initialization reallocates.
	MintLamports uint64
	// MetadataLamports funds the separate metadata account; zero when embedded.
	MetadataLamports uint64
}

// TotalLamports is the rent the fee payer must cover.
func (s *Sizing) TotalLamports() uint64 {
	return s.MintLamports + s.MetadataLamports
}

// SizeAccounts computes account lengths for meta and queries their rent.
func SizeAccounts(ctx context.Context, rpc solana.RPCClient, placement Placement, meta *token2022.TokenMetadata) (*Sizing, error) {
	mintLen, err := token2022.MintLen(mintExtensions...)
	if err != nil {
		return nil, fmt.Errorf("mint length: %w", err)
	}

	s := &Sizing{
		Placement:   placement,
		MintLen:     mintLen,
		MetadataLen: token2022.MetadataLen(meta),
	}

	switch placement {
	case PlacementEmbedded:
		s.MintLamports, err = rpc.GetMinimumBalanceForRentExemption(ctx, uint64(s.MintLen+s.MetadataLen))
		if err != nil {
			return nil, fmt.Errorf("rent for mint with metadata: %w", err)
		}
	case PlacementSeparate:
		s.MintLamports, err = rpc.GetMinimumBalanceForRentExemption(ctx, uint64(s.MintLen))
		if err != nil {
			return nil, fmt.Errorf("rent for mint: %w", err)
		}
		s.MetadataLamports, err = rpc.GetMinimumBalanceForRentExemption(ctx, uint64(s.MetadataLen))
		if err != nil {
			return nil, fmt.Errorf("rent for metadata: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown metadata placement %q", ErrInvalidParams, placement)
	}

	return s, nil
}
