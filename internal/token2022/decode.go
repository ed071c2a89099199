package token2022

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

// reader is a sticky-error little-endian cursor.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrInvalidAccountData, n, r.off, len(r.buf))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) pubkey() common.PublicKey {
	b := r.take(PublicKeySize)
	if b == nil {
		return common.PublicKey{}
	}
	return common.PublicKeyFromBytes(b)
}

// coptionPubkey reads a state COption<Pubkey>: u32 tag followed by 32 bytes.
func (r *reader) coptionPubkey() *common.PublicKey {
	tag := r.u32()
	key := r.pubkey()
	if r.err != nil || tag == 0 {
		return nil
	}
	return &key
}

func (r *reader) borshString() string {
	n := r.u32()
	return string(r.take(int(n)))
}
