package token2022

import (
	"github.com/blocto/solana-go-sdk/common"
)

// FindAssociatedTokenAddress derives the Token-2022 associated token account
// for (owner, mint). The owner must be a wallet address, not a PDA.
func FindAssociatedTokenAddress(owner, mint common.PublicKey) (common.PublicKey, uint8, error) {
	if !common.IsOnCurve(owner) {
		return common.PublicKey{}, 0, ErrOwnerOffCurve
	}
	return common.FindProgramAddress(
		[][]byte{owner.Bytes(), ProgramID.Bytes(), mint.Bytes()},
		AssociatedTokenProgramID,
	)
}
