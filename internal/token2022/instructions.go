package token2022

import (
	"encoding/binary"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

// InitializeTransferFeeConfigParam configures the transfer-fee extension.
type InitializeTransferFeeConfigParam struct {
	Mint                      common.PublicKey
	ConfigAuthority           *common.PublicKey
	WithdrawWithheldAuthority *common.PublicKey
	BasisPoints               uint16
	MaximumFee                uint64
}

// InitializeTransferFeeConfig must run before InitializeMint.
func InitializeTransferFeeConfig(p InitializeTransferFeeConfigParam) (types.Instruction, error) {
	if p.BasisPoints > MaxFeeBasisPoints {
		return types.Instruction{}, ErrInvalidFeeBasisPoints
	}

	data := []byte{InstructionTransferFeeExtension, TransferFeeInitializeConfig}
	data = appendCOptionInstruction(data, p.ConfigAuthority)
	data = appendCOptionInstruction(data, p.WithdrawWithheldAuthority)
	data = binary.LittleEndian.AppendUint16(data, p.BasisPoints)
	data = binary.LittleEndian.AppendUint64(data, p.MaximumFee)

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}, nil
}

// InitializeMetadataPointerParam configures the metadata-pointer extension.
type InitializeMetadataPointerParam struct {
	Mint            common.PublicKey
	Authority       *common.PublicKey
	MetadataAddress common.PublicKey
}

// InitializeMetadataPointer must run before InitializeMint.
func InitializeMetadataPointer(p InitializeMetadataPointerParam) types.Instruction {
	data := []byte{InstructionMetadataPointerExtension, MetadataPointerInitialize}
	data = appendOptionalNonZero(data, p.Authority)
	data = append(data, p.MetadataAddress.Bytes()...)

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}
}

// InitializeMintParam sets the mint's base state.
type InitializeMintParam struct {
	Mint            common.PublicKey
	Decimals        uint8
	MintAuthority   common.PublicKey
	FreezeAuthority *common.PublicKey
}

// InitializeMint finalizes the mint's base state.
func InitializeMint(p InitializeMintParam) types.Instruction {
	data := []byte{InstructionInitializeMint, p.Decimals}
	data = append(data, p.MintAuthority.Bytes()...)
	data = appendCOptionInstruction(data, p.FreezeAuthority)

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
			{PubKey: SysVarRentPubkey, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}
}

// InitializeTokenMetadataParam writes the metadata record.
type InitializeTokenMetadataParam struct {
	ProgramID       common.PublicKey
	Metadata        common.PublicKey
	UpdateAuthority common.PublicKey
	Mint            common.PublicKey
	MintAuthority   common.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// InitializeTokenMetadata writes name, symbol and URI with an empty
// additional-field list.
func InitializeTokenMetadata(p InitializeTokenMetadataParam) types.Instruction {
	data := append([]byte{}, metadataInitializeDiscriminator[:]...)
	data = appendBorshString(data, p.Name)
	data = appendBorshString(data, p.Symbol)
	data = appendBorshString(data, p.URI)

	return types.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: p.UpdateAuthority, IsSigner: false, IsWritable: false},
			{PubKey: p.Mint, IsSigner: false, IsWritable: false},
			{PubKey: p.MintAuthority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}

// UpdateTokenMetadataFieldParam updates one metadata field.
type UpdateTokenMetadataFieldParam struct {
	ProgramID       common.PublicKey
	Metadata        common.PublicKey
	UpdateAuthority common.PublicKey
	Field           Field
	Value           string
}

// UpdateTokenMetadataField sets a base field or an additional key.
func UpdateTokenMetadataField(p UpdateTokenMetadataFieldParam) types.Instruction {
	data := append([]byte{}, metadataUpdateFieldDiscriminator[:]...)
	data = append(data, p.Field.Kind)
	if p.Field.Kind == FieldKey {
		data = appendBorshString(data, p.Field.Key)
	}
	data = appendBorshString(data, p.Value)

	return types.Instruction{
		ProgramID: p.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: p.UpdateAuthority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}

// MintToParam mints base units into a token account.
type MintToParam struct {
	Mint      common.PublicKey
	To        common.PublicKey
	Authority common.PublicKey
	Amount    uint64
}

// MintTo builds a Token-2022 MintTo instruction.
func MintTo(p MintToParam) types.Instruction {
	data := binary.LittleEndian.AppendUint64([]byte{InstructionMintTo}, p.Amount)

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
			{PubKey: p.To, IsSigner: false, IsWritable: true},
			{PubKey: p.Authority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}

// TransferCheckedWithFeeParam moves tokens and asserts the withheld fee.
type TransferCheckedWithFeeParam struct {
	From      common.PublicKey
	Mint      common.PublicKey
	To        common.PublicKey
	Authority common.PublicKey
	Amount    uint64
	Decimals  uint8
	Fee       uint64
}

// TransferCheckedWithFee fails on-chain if Fee differs from the mint's
// computed fee for Amount.
func TransferCheckedWithFee(p TransferCheckedWithFeeParam) types.Instruction {
	data := []byte{InstructionTransferFeeExtension, TransferFeeTransferCheckedWithFee}
	data = binary.LittleEndian.AppendUint64(data, p.Amount)
	data = append(data, p.Decimals)
	data = binary.LittleEndian.AppendUint64(data, p.Fee)

	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.From, IsSigner: false, IsWritable: true},
			{PubKey: p.Mint, IsSigner: false, IsWritable: false},
			{PubKey: p.To, IsSigner: false, IsWritable: true},
			{PubKey: p.Authority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}

// CreateAssociatedTokenAccountParam creates the canonical token account.
type CreateAssociatedTokenAccountParam struct {
	Funder                 common.PublicKey
	Owner                  common.PublicKey
	Mint                   common.PublicKey
	AssociatedTokenAccount common.PublicKey
}

// CreateAssociatedTokenAccount builds the associated-token-account Create
// instruction bound to the Token-2022 program.
func CreateAssociatedTokenAccount(p CreateAssociatedTokenAccountParam) types.Instruction {
	return types.Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Funder, IsSigner: true, IsWritable: true},
			{PubKey: p.AssociatedTokenAccount, IsSigner: false, IsWritable: true},
			{PubKey: p.Owner, IsSigner: false, IsWritable: false},
			{PubKey: p.Mint, IsSigner: false, IsWritable: false},
			{PubKey: SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: ProgramID, IsSigner: false, IsWritable: false},
		},
		Data: []byte{},
	}
}

// appendCOptionInstruction encodes an instruction-level COption<Pubkey>:
// a single tag byte, followed by the key when present.
func appendCOptionInstruction(buf []byte, key *common.PublicKey) []byte {
	if key == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return append(buf, key.Bytes()...)
}

// appendOptionalNonZero encodes an OptionalNonZeroPubkey: the zero key is None.
func appendOptionalNonZero(buf []byte, key *common.PublicKey) []byte {
	if key == nil {
		return append(buf, make([]byte, PublicKeySize)...)
	}
	return append(buf, key.Bytes()...)
}
