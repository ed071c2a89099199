package token2022

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// MetadataField is a key/value pair stored in the additional metadata list.
type MetadataField struct {
	Key   string
	Value string
}

// TokenMetadata is the token-metadata interface record.
type TokenMetadata struct {
	UpdateAuthority common.PublicKey // zero key means no authority
	Mint            common.PublicKey
	Name            string
	Symbol          string
	URI             string
	Additional      []MetadataField
}

// PackedLen returns the borsh-encoded length of the record.
func (m *TokenMetadata) PackedLen() int {
	n := 2*PublicKeySize + borshStringLen(m.Name) + borshStringLen(m.Symbol) + borshStringLen(m.URI) + 4
	for _, f := range m.Additional {
		n += borshStringLen(f.Key) + borshStringLen(f.Value)
	}
	return n
}

// Pack encodes the record in the layout the program stores on-chain.
func (m *TokenMetadata) Pack() []byte {
	buf := make([]byte, 0, m.PackedLen())
	buf = append(buf, m.UpdateAuthority.Bytes()...)
	buf = append(buf, m.Mint.Bytes()...)
	buf = appendBorshString(buf, m.Name)
	buf = appendBorshString(buf, m.Symbol)
	buf = appendBorshString(buf, m.URI)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Additional)))
	for _, f := range m.Additional {
		buf = appendBorshString(buf, f.Key)
		buf = appendBorshString(buf, f.Value)
	}
	return buf
}

// UnpackTokenMetadata decodes a packed record.
func UnpackTokenMetadata(data []byte) (*TokenMetadata, error) {
	r := &reader{buf: data}
	m := &TokenMetadata{
		UpdateAuthority: r.pubkey(),
		Mint:            r.pubkey(),
		Name:            r.borshString(),
		Symbol:          r.borshString(),
		URI:             r.borshString(),
	}
	count := r.u32()
	for i := uint32(0); i < count && r.err == nil; i++ {
		m.Additional = append(m.Additional, MetadataField{Key: r.borshString(), Value: r.borshString()})
	}
	if r.err != nil {
		return nil, fmt.Errorf("unpack token metadata: %w", r.err)
	}
	return m, nil
}

// Field identifies which metadata field an update targets.
type Field struct {
	Kind uint8 // FieldName, FieldSymbol, FieldURI or FieldKey
	Key  string
}

// Field kinds, in borsh enum order.
const (
	FieldName uint8 = iota
	FieldSymbol
	FieldURI
	FieldKey
)

var (
	metadataInitializeDiscriminator  = interfaceDiscriminator("spl_token_metadata_interface:initialize_account")
	metadataUpdateFieldDiscriminator = interfaceDiscriminator("spl_token_metadata_interface:updating_field")
)

// MetadataInitializeDiscriminator returns the 8-byte tag of the token
// metadata initialize instruction.
func MetadataInitializeDiscriminator() []byte {
	return append([]byte{}, metadataInitializeDiscriminator[:]...)
}

// MetadataUpdateFieldDiscriminator returns the 8-byte tag of the token
// metadata update-field instruction.
func MetadataUpdateFieldDiscriminator() []byte {
	return append([]byte{}, metadataUpdateFieldDiscriminator[:]...)
}

// interfaceDiscriminator returns the first 8 bytes of sha256(name).
func interfaceDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte(name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

func borshStringLen(s string) int {
	return 4 + len(s)
}

func appendBorshString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
