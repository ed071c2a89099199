package provision

import (
	"errors"

	"solana-taxed-token/internal/solana"
)

// Provisioning errors.
var (
	// ErrInsufficientFunds is returned when the fee payer cannot cover the rent
	// of the accounts the run creates.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConfirmationTimeout is returned when a sent transaction does not
	// reach the requested commitment in time.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrTransactionFailed is returned when a transaction landed with an error.
	ErrTransactionFailed = solana.ErrTransactionFailed

	// ErrInvalidTransition is returned on a non-forward state change.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrWorkflowUsed is returned when Run is called twice on one Workflow.
	ErrWorkflowUsed = errors.New("workflow already used")

	// ErrMissingDeployer is returned when no deployer key is supplied.
	ErrMissingDeployer = errors.New("deployer key is required")

	// ErrInvalidParams is returned when Params fail validation.
	ErrInvalidParams = errors.New("invalid token params")

	// ErrInstructionOrder is returned when built instructions violate the
	// required initialization order.
	ErrInstructionOrder = errors.New("invalid instruction order")
)
