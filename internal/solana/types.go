package solana

// Commitment levels, in increasing order of finality.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Satisfies reports whether c is at least as final as want.
func (c Commitment) Satisfies(want Commitment) bool {
	return commitmentRank(c) >= commitmentRank(want)
}

func commitmentRank(c Commitment) int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Blockhash from getLatestBlockhash.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int64
	Err                interface{}
	ConfirmationStatus Commitment
}

// AccountInfo from getAccountInfo (base64 data decoded).
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
}

// TokenAmount from getTokenAccountBalance.
type TokenAmount struct {
	Amount         string
	Decimals       uint8
	UIAmountString string
}
