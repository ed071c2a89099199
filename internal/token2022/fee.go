package token2022

import "math/bits"

// CalculateFee returns the fee withheld on a transfer of amount base units:
// ceil(amount * basisPoints / 10000), capped at maximumFee.
func CalculateFee(amount uint64, basisPoints uint16, maximumFee uint64) uint64 {
	if basisPoints == 0 || amount == 0 {
		return 0
	}

	hi, lo := bits.Mul64(amount, uint64(basisPoints))
	// ceil via (n + d - 1) / d on 128 bits
	lo, carry := bits.Add64(lo, MaxFeeBasisPoints-1, 0)
	hi += carry
	if hi >= MaxFeeBasisPoints {
		return maximumFee
	}
	fee, _ := bits.Div64(hi, lo, MaxFeeBasisPoints)

	if fee > maximumFee {
		return maximumFee
	}
	return fee
}

// NetAmount returns what the recipient's account is credited.
func NetAmount(amount uint64, basisPoints uint16, maximumFee uint64) uint64 {
	return amount - CalculateFee(amount, basisPoints, maximumFee)
}
