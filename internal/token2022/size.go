package token2022

// MintLen returns the account length of a mint carrying the given fixed-size
// extensions. Variable-length extensions (token metadata) are not included.
func MintLen(extensions ...ExtensionType) (int, error) {
	if len(extensions) == 0 {
		return MintBaseSize, nil
	}

	size := AccountBaseSize + AccountTypeSize
	for _, ext := range extensions {
		n, err := extensionLen(ext)
		if err != nil {
			return 0, err
		}
		size += TLVHeaderSize + n
	}

	// A mint with extensions must never be mistaken for a multisig.
	if size == MultisigSize {
		size += TLVHeaderSize
	}
	return size, nil
}

// MetadataLen returns the number of bytes a token metadata record occupies
// as a TLV entry: the 4-byte header plus the packed payload.
func MetadataLen(m *TokenMetadata) int {
	return TLVHeaderSize + m.PackedLen()
}
