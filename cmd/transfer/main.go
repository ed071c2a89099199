// Command transfer sends a taxed transfer from the configured wallet and
// reports the fee the mint withheld.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"solana-taxed-token/internal/config"
	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/provision"
	"solana-taxed-token/internal/transfer"
	"solana-taxed-token/internal/wallet"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	mint       = flag.String("mint", "", "Mint address override")
	recipient  = flag.String("recipient", "", "Recipient address override")
	amount     = flag.Uint64("amount", 0, "Amount in whole tokens override")
)

func main() {
	flag.Parse()

	// The loader validates the mint, so the override goes through the environment.
	if *mint != "" {
		os.Setenv("TAXED_TOKEN_TRANSFER_MINT", *mint)
	}
	cfg, err := config.LoadTransferConfig(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *recipient != "" {
		cfg.Transfer.Recipient = *recipient
	}
	if *amount != 0 {
		cfg.Transfer.Amount = *amount
	}

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "transfer",
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if code := logger.Finish(err, 2*time.Second, zap.String("component", "transfer")); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.TransferConfig) error {
	sender, err := cfg.Wallet.Account()
	if err != nil {
		return err
	}
	mintKey, err := config.ParsePublicKey(cfg.Transfer.Mint)
	if err != nil {
		return err
	}

	var to common.PublicKey
	if cfg.Transfer.Recipient == "" {
		to = types.NewAccount().PublicKey
		logger.InfoCtx(ctx, "Generated throwaway recipient", zap.String("recipient", to.ToBase58()))
	} else if to, err = config.ParsePublicKey(cfg.Transfer.Recipient); err != nil {
		return err
	}

	rpc := cfg.Solana.Client()
	confirmer, closeWS, err := cfg.Solana.Confirmer(ctx)
	if err != nil {
		return err
	}
	defer closeWS()

	runner := transfer.NewRunner(rpc, provision.NewSubmitter(rpc, cfg.Solana.SubmitterOptions(confirmer)))

	decimals, err := runner.Decimals(ctx, mintKey)
	if err != nil {
		return err
	}
	baseUnits, err := transfer.BaseUnits(cfg.Transfer.Amount, decimals)
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx, sender, transfer.Request{
		Mint:      mintKey,
		Recipient: to,
		Amount:    baseUnits,
	})
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Taxed transfer confirmed",
		zap.String("signature", res.Signature),
		zap.String("destination", res.Destination.ToBase58()),
		zap.Bool("created_destination", res.CreatedDestination),
		zap.String("amount", wallet.UIAmount(res.Amount, res.Decimals).String()),
		zap.String("fee", wallet.UIAmount(res.Fee, res.Decimals).String()),
		zap.String("received", wallet.UIAmount(res.Received, res.Decimals).String()),
	)
	return nil
}
