package domain

import "time"

// DeploymentReceipt summarizes a completed token deployment.
// Written as JSON next to the deploy command after a successful run.
type DeploymentReceipt struct {
	MintAddress            string    `json:"mintAddress"`
	WalletAddress          string    `json:"walletAddress"`
	TransferFeeBasisPoints uint16    `json:"transferFeeBasisPoints"`
	MaximumFee             uint64    `json:"maximumFee"`
	TokenName              string    `json:"tokenName"`
	TokenSymbol            string    `json:"tokenSymbol"`
	TokenURI               string    `json:"tokenUri"`
	Decimals               uint8     `json:"decimals"`
	TotalSupply            uint64    `json:"totalSupply"`
	Placement              string    `json:"placement"`
	MetadataAddress        string    `json:"metadataAddress"`
	TokenAccount           string    `json:"tokenAccount"`
	MintSignature          string    `json:"mintSignature"`
	SupplySignature        string    `json:"supplySignature"`
	DeployedAt             time.Time `json:"deployedAt"`
}
