// Package token2022 encodes Token-2022 (token extensions) program instructions
// and account layouts for mints carrying the transfer-fee, metadata-pointer and
// token-metadata extensions.
package token2022

import (
	"errors"

	"github.com/blocto/solana-go-sdk/common"
)

// Program IDs.
var (
	ProgramID                = common.Token2022ProgramID
	AssociatedTokenProgramID = common.SPLAssociatedTokenAccountProgramID
	SystemProgramID          = common.SystemProgramID
	SysVarRentPubkey         = common.SysVarRentPubkey
)

// Token instruction tags.
const (
	InstructionInitializeMint           uint8 = 0
	InstructionMintTo                   uint8 = 7
	InstructionTransferFeeExtension     uint8 = 26
	InstructionMetadataPointerExtension uint8 = 39
)

// Transfer fee extension sub-instructions.
const (
	TransferFeeInitializeConfig       uint8 = 0
	TransferFeeTransferCheckedWithFee uint8 = 1
)

// Metadata pointer extension sub-instructions.
const (
	MetadataPointerInitialize uint8 = 0
)

// ExtensionType identifies a TLV entry in a Token-2022 account.
type ExtensionType uint16

// Extension types used by this package.
const (
	ExtensionUninitialized     ExtensionType = 0
	ExtensionTransferFeeConfig ExtensionType = 1
	ExtensionMetadataPointer   ExtensionType = 18
	ExtensionTokenMetadata     ExtensionType = 19
)

// Layout sizes.
const (
	MintBaseSize    = 82
	AccountBaseSize = 165
	MultisigSize    = 355
	AccountTypeSize = 1
	TLVHeaderSize   = 4 // type u16 + length u16
	PublicKeySize   = 32
	accountTypeMint = 1
	transferFeeSize = 18 // epoch u64 + maximum_fee u64 + basis_points u16
)

// MaxFeeBasisPoints is 100%.
const MaxFeeBasisPoints = 10000

// Errors.
var (
	ErrInvalidFeeBasisPoints = errors.New("transfer fee basis points must be within [0, 10000]")
	ErrOwnerOffCurve         = errors.New("associated token account owner is off curve")
	ErrUnknownExtension      = errors.New("unknown extension type")
	ErrInvalidAccountData    = errors.New("invalid account data")
)

// extensionLen returns the fixed value length of an extension.
// TokenMetadata is variable-length and is sized separately.
func extensionLen(ext ExtensionType) (int, error) {
	switch ext {
	case ExtensionTransferFeeConfig:
		// config authority + withdraw authority + withheld amount + older fee + newer fee
		return 2*PublicKeySize + 8 + 2*transferFeeSize, nil
	case ExtensionMetadataPointer:
		return 2 * PublicKeySize, nil
	default:
		return 0, ErrUnknownExtension
	}
}
