package token2022

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// TransferFee is one epoch-scoped fee schedule.
type TransferFee struct {
	Epoch       uint64
	MaximumFee  uint64
	BasisPoints uint16
}

// TransferFeeConfig is the transfer-fee extension state.
type TransferFeeConfig struct {
	ConfigAuthority           common.PublicKey
	WithdrawWithheldAuthority common.PublicKey
	WithheldAmount            uint64
	Older                     TransferFee
	Newer                     TransferFee
}

// FeeForEpoch returns the schedule in force at epoch.
func (c *TransferFeeConfig) FeeForEpoch(epoch uint64) TransferFee {
	if epoch >= c.Newer.Epoch {
		return c.Newer
	}
	return c.Older
}

// MetadataPointer is the metadata-pointer extension state.
type MetadataPointer struct {
	Authority       common.PublicKey
	MetadataAddress common.PublicKey
}

// Mint is a decoded Token-2022 mint account.
type Mint struct {
	MintAuthority   *common.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *common.PublicKey

	TransferFeeConfig *TransferFeeConfig
	MetadataPointer   *MetadataPointer
	TokenMetadata     *TokenMetadata
}

// DecodeMint parses mint account data including known extensions.
// Unknown extensions are skipped.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) < MintBaseSize {
		return nil, fmt.Errorf("%w: mint data is %d bytes", ErrInvalidAccountData, len(data))
	}

	r := &reader{buf: data}
	m := &Mint{
		MintAuthority:   r.coptionPubkey(),
		Supply:          r.u64(),
		Decimals:        r.u8(),
		IsInitialized:   r.u8() == 1,
		FreezeAuthority: r.coptionPubkey(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("decode mint: %w", r.err)
	}

	if len(data) <= AccountBaseSize {
		return m, nil
	}
	if data[AccountBaseSize] != accountTypeMint {
		return nil, fmt.Errorf("%w: account type %d is not a mint", ErrInvalidAccountData, data[AccountBaseSize])
	}

	r = &reader{buf: data, off: AccountBaseSize + AccountTypeSize}
	for r.off+TLVHeaderSize <= len(data) {
		ext := ExtensionType(r.u16())
		length := int(r.u16())
		value := r.take(length)
		if r.err != nil {
			return nil, fmt.Errorf("decode mint extension %d: %w", ext, r.err)
		}

		switch ext {
		case ExtensionUninitialized:
			return m, nil
		case ExtensionTransferFeeConfig:
			m.TransferFeeConfig = decodeTransferFeeConfig(value)
		case ExtensionMetadataPointer:
			v := &reader{buf: value}
			m.MetadataPointer = &MetadataPointer{Authority: v.pubkey(), MetadataAddress: v.pubkey()}
		case ExtensionTokenMetadata:
			tm, err := UnpackTokenMetadata(value)
			if err != nil {
				return nil, err
			}
			m.TokenMetadata = tm
		}
	}
	return m, nil
}

func decodeTransferFeeConfig(value []byte) *TransferFeeConfig {
	v := &reader{buf: value}
	c := &TransferFeeConfig{
		ConfigAuthority:           v.pubkey(),
		WithdrawWithheldAuthority: v.pubkey(),
		WithheldAmount:            v.u64(),
	}
	c.Older = TransferFee{Epoch: v.u64(), MaximumFee: v.u64(), BasisPoints: v.u16()}
	c.Newer = TransferFee{Epoch: v.u64(), MaximumFee: v.u64(), BasisPoints: v.u16()}
	return c
}

// Encode serializes the mint in on-chain layout. It is the inverse of
// DecodeMint and is used to seed ledger fixtures.
func (m *Mint) Encode() []byte {
	buf := make([]byte, 0, AccountBaseSize+64)
	buf = appendCOptionState(buf, m.MintAuthority)
	buf = binary.LittleEndian.AppendUint64(buf, m.Supply)
	buf = append(buf, m.Decimals)
	if m.IsInitialized {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendCOptionState(buf, m.FreezeAuthority)

	if m.TransferFeeConfig == nil && m.MetadataPointer == nil && m.TokenMetadata == nil {
		return buf
	}

	buf = append(buf, make([]byte, AccountBaseSize-len(buf))...)
	buf = append(buf, accountTypeMint)

	if c := m.TransferFeeConfig; c != nil {
		var v []byte
		v = append(v, c.ConfigAuthority.Bytes()...)
		v = append(v, c.WithdrawWithheldAuthority.Bytes()...)
		v = binary.LittleEndian.AppendUint64(v, c.WithheldAmount)
		for _, f := range []TransferFee{c.Older, c.Newer} {
			v = binary.LittleEndian.AppendUint64(v, f.Epoch)
			v = binary.LittleEndian.AppendUint64(v, f.MaximumFee)
			v = binary.LittleEndian.AppendUint16(v, f.BasisPoints)
		}
		buf = appendTLV(buf, ExtensionTransferFeeConfig, v)
	}
	if p := m.MetadataPointer; p != nil {
		v := append(p.Authority.Bytes(), p.MetadataAddress.Bytes()...)
		buf = appendTLV(buf, ExtensionMetadataPointer, v)
	}
	if m.TokenMetadata != nil {
		buf = appendTLV(buf, ExtensionTokenMetadata, m.TokenMetadata.Pack())
	}
	return buf
}

func appendCOptionState(buf []byte, key *common.PublicKey) []byte {
	if key == nil {
		buf = binary.LittleEndian.AppendUint32(buf, 0)
		return append(buf, make([]byte, PublicKeySize)...)
	}
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	return append(buf, key.Bytes()...)
}

func appendTLV(buf []byte, ext ExtensionType, value []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(ext))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(value)))
	return append(buf, value...)
}
