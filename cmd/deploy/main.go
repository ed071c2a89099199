// Command deploy provisions a Token-2022 mint with a transfer fee and
// on-chain metadata, mints the fixed supply to the deployer and writes a
// deployment receipt.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"solana-taxed-token/internal/config"
	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/provision"
	"solana-taxed-token/internal/storage/backend"
	"solana-taxed-token/internal/wallet"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	placement  = flag.String("placement", "", "Metadata placement override: embedded or separate")
	receipt    = flag.String("receipt", "", "Receipt path override")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadDeployConfig(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *placement != "" {
		cfg.Token.Placement = *placement
	}
	if *receipt != "" {
		cfg.Token.ReceiptPath = *receipt
	}

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "deploy",
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if code := logger.Finish(err, 2*time.Second, zap.String("component", "deploy")); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.DeployConfig) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	deployer, err := cfg.Wallet.Account()
	if err != nil {
		return err
	}

	rpc := cfg.Solana.Client()
	confirmer, closeWS, err := cfg.Solana.Confirmer(ctx)
	if err != nil {
		return err
	}
	defer closeWS()

	logger.InfoCtx(ctx, "Deploying taxed token",
		zap.String("deployer", deployer.PublicKey.ToBase58()),
		zap.String("name", params.Name),
		zap.String("symbol", params.Symbol),
		zap.String("placement", string(params.Placement)),
		zap.Uint16("fee_basis_points", params.FeeBasisPoints),
	)

	res, err := provision.New(provision.Options{
		RPC:    rpc,
		Submit: cfg.Solana.SubmitterOptions(confirmer),
	}).Run(ctx, &deployer, params)
	if err != nil {
		return err
	}

	if err := provision.WriteReceipt(cfg.Token.ReceiptPath, res.Receipt); err != nil {
		return err
	}

	total := wallet.UIAmount(res.Receipt.TotalSupply, res.Receipt.Decimals)
	logger.InfoCtx(ctx, "Taxed token deployed",
		zap.String("mint", res.Receipt.MintAddress),
		zap.String("metadata", res.Receipt.MetadataAddress),
		zap.String("token_account", res.Receipt.TokenAccount),
		zap.String("total_supply", total.String()),
		zap.String("receipt", cfg.Token.ReceiptPath),
	)

	if cfg.Database.Backend == "" {
		return nil
	}
	b, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.Deployments.Insert(ctx, res.Receipt); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Deployment recorded", zap.String("backend", b.Name))
	return nil
}
