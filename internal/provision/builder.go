package provision

import (
	"bytes"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"

	"solana-taxed-token/internal/token2022"
)

// Accounts names the keys a mint transaction touches.
type Accounts struct {
	// Payer funds the accounts and holds every authority.
	Payer common.PublicKey
	// Mint is the new mint account.
	Mint common.PublicKey
	// Metadata is the metadata address; equal to Mint when embedded.
	Metadata common.PublicKey
}

// BuildMintInstructions assembles the mint transaction in the order
// Token-2022 requires: extensions are initialized before the mint, metadata
// after it.
func BuildMintInstructions(p *Params, sizing *Sizing, acc Accounts) ([]types.Instruction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	placement := p.placement()
	if sizing.Placement != placement {
		return nil, fmt.Errorf("%w: sizing is for %q, params for %q", ErrInvalidParams, sizing.Placement, placement)
	}
	if placement == PlacementEmbedded && acc.Metadata != acc.Mint {
		return nil, fmt.Errorf("%w: embedded metadata must live at the mint address", ErrInvalidParams)
	}
	if placement == PlacementSeparate && acc.Metadata == acc.Mint {
		return nil, fmt.Errorf("%w: separate metadata needs its own account", ErrInvalidParams)
	}

	metadataProgram := token2022.ProgramID
	instrs := make([]types.Instruction, 0, 8+len(p.AdditionalFields))

	instrs = append(instrs, system.CreateAccount(system.CreateAccountParam{
		From:     acc.Payer,
		New:      acc.Mint,
		Owner:    token2022.ProgramID,
		Lamports: sizing.MintLamports,
		Space:    uint64(sizing.MintLen),
	}))

	if placement == PlacementSeparate {
		metadataProgram = p.metadataProgram()
		instrs = append(instrs, system.CreateAccount(system.CreateAccountParam{
			From:     acc.Payer,
			New:      acc.Metadata,
			Owner:    metadataProgram,
			Lamports: sizing.MetadataLamports,
			Space:    uint64(sizing.MetadataLen),
		}))
	}

	feeInit, err := token2022.InitializeTransferFeeConfig(token2022.InitializeTransferFeeConfigParam{
		Mint:                      acc.Mint,
		ConfigAuthority:           &acc.Payer,
		WithdrawWithheldAuthority: &acc.Payer,
		BasisPoints:               p.FeeBasisPoints,
		MaximumFee:                p.MaxFee,
	})
	if err != nil {
		return nil, err
	}
	instrs = append(instrs, feeInit)

	instrs = append(instrs,
		token2022.InitializeMetadataPointer(token2022.InitializeMetadataPointerParam{
			Mint:            acc.Mint,
			Authority:       &acc.Payer,
			MetadataAddress: acc.Metadata,
		}),
		token2022.InitializeMint(token2022.InitializeMintParam{
			Mint:          acc.Mint,
			Decimals:      p.Decimals,
			MintAuthority: acc.Payer,
		}),
		token2022.InitializeTokenMetadata(token2022.InitializeTokenMetadataParam{
			ProgramID:       metadataProgram,
			Metadata:        acc.Metadata,
			UpdateAuthority: acc.Payer,
			Mint:            acc.Mint,
			MintAuthority:   acc.Payer,
			Name:            p.Name,
			Symbol:          p.Symbol,
			URI:             p.URI,
		}),
		// Rewrites name with its current value; leaves the record unchanged.
		token2022.UpdateTokenMetadataField(token2022.UpdateTokenMetadataFieldParam{
			ProgramID:       metadataProgram,
			Metadata:        acc.Metadata,
			UpdateAuthority: acc.Payer,
			Field:           token2022.Field{Kind: token2022.FieldName},
			Value:           p.Name,
		}),
	)

	for _, f := range p.AdditionalFields {
		instrs = append(instrs, token2022.UpdateTokenMetadataField(token2022.UpdateTokenMetadataFieldParam{
			ProgramID:       metadataProgram,
			Metadata:        acc.Metadata,
			UpdateAuthority: acc.Payer,
			Field:           token2022.Field{Kind: token2022.FieldKey, Key: f.Key},
			Value:           f.Value,
		}))
	}

	if err := ValidateOrder(instrs); err != nil {
		return nil, err
	}
	return instrs, nil
}

type instructionKind int

const (
	kindOther instructionKind = iota
	kindCreateAccount
	kindTransferFeeInit
	kindMetadataPointerInit
	kindMintInit
	kindMetadataInit
	kindMetadataUpdate
)

func classify(ix types.Instruction) instructionKind {
	switch {
	case ix.ProgramID == token2022.SystemProgramID:
		return kindCreateAccount
	case len(ix.Data) >= 8 && bytes.Equal(ix.Data[:8], token2022.MetadataInitializeDiscriminator()):
		return kindMetadataInit
	case len(ix.Data) >= 8 && bytes.Equal(ix.Data[:8], token2022.MetadataUpdateFieldDiscriminator()):
		return kindMetadataUpdate
	case ix.ProgramID != token2022.ProgramID || len(ix.Data) == 0:
		return kindOther
	}

	switch ix.Data[0] {
	case token2022.InstructionTransferFeeExtension:
		if len(ix.Data) > 1 && ix.Data[1] == token2022.TransferFeeInitializeConfig {
			return kindTransferFeeInit
		}
	case token2022.InstructionMetadataPointerExtension:
		if len(ix.Data) > 1 && ix.Data[1] == token2022.MetadataPointerInitialize {
			return kindMetadataPointerInit
		}
	case token2022.InstructionInitializeMint:
		return kindMintInit
	}
	return kindOther
}

// ValidateOrder checks that accounts are created first, both extensions are
// initialized before the mint, and metadata instructions follow the mint
// initialization.
func ValidateOrder(instrs []types.Instruction) error {
	pos := map[instructionKind]int{}
	lastCreate := -1
	firstNonCreate := -1
	for i, ix := range instrs {
		kind := classify(ix)
		if kind == kindCreateAccount {
			lastCreate = i
		} else if firstNonCreate < 0 {
			firstNonCreate = i
		}
		if _, ok := pos[kind]; !ok {
			pos[kind] = i
		}
	}

	for _, kind := range []instructionKind{kindCreateAccount, kindTransferFeeInit, kindMetadataPointerInit, kindMintInit, kindMetadataInit} {
		if _, ok := pos[kind]; !ok {
			return fmt.Errorf("%w: missing %s", ErrInstructionOrder, kind)
		}
	}
	if firstNonCreate >= 0 && lastCreate > firstNonCreate {
		return fmt.Errorf("%w: account creation at %d after initialization at %d", ErrInstructionOrder, lastCreate, firstNonCreate)
	}

	mintInit := pos[kindMintInit]
	if pos[kindTransferFeeInit] > mintInit {
		return fmt.Errorf("%w: %s must precede %s", ErrInstructionOrder, kindTransferFeeInit, kindMintInit)
	}
	if pos[kindMetadataPointerInit] > mintInit {
		return fmt.Errorf("%w: %s must precede %s", ErrInstructionOrder, kindMetadataPointerInit, kindMintInit)
	}
	if pos[kindMetadataInit] < mintInit {
		return fmt.Errorf("%w: %s must follow %s", ErrInstructionOrder, kindMetadataInit, kindMintInit)
	}
	if update, ok := pos[kindMetadataUpdate]; ok && update < pos[kindMetadataInit] {
		return fmt.Errorf("%w: %s must follow %s", ErrInstructionOrder, kindMetadataUpdate, kindMetadataInit)
	}
	return nil
}

func (k instructionKind) String() string {
	switch k {
	case kindCreateAccount:
		return "create account"
	case kindTransferFeeInit:
		return "transfer fee init"
	case kindMetadataPointerInit:
		return "metadata pointer init"
	case kindMintInit:
		return "mint init"
	case kindMetadataInit:
		return "metadata init"
	case kindMetadataUpdate:
		return "metadata update"
	default:
		return "other"
	}
}
