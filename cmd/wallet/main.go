// Command wallet creates key files and inspects wallet balances.
//
// Usage:
//
//	wallet [flags] create|balance|airdrop|tokens
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"solana-taxed-token/internal/config"
	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/wallet"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	keyfile    = flag.String("keyfile", "", "Key file path override")
	address    = flag.String("address", "", "Address to inspect instead of the configured wallet")
	lamports   = flag.Uint64("lamports", wallet.DefaultAirdropLamports, "Airdrop amount in lamports")
	mints      = flag.String("mints", "", "Comma-separated mint addresses for the tokens command")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] create|balance|airdrop|tokens\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.LoadWalletConfig(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *keyfile != "" {
		cfg.Wallet.KeypairPath = *keyfile
		cfg.Wallet.PrivateKey = ""
	}
	if *mints != "" {
		cfg.Mints = strings.Split(*mints, ",")
	}

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "wallet",
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, command)
	stop()
	if code := logger.Finish(err, 2*time.Second, zap.String("command", command)); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.WalletConfig, command string) error {
	if command == "create" {
		acc, err := wallet.Create(cfg.Wallet.KeypairPath)
		if err != nil {
			return err
		}
		logger.InfoCtx(ctx, "Wallet created",
			zap.String("address", acc.PublicKey.ToBase58()),
			zap.String("path", cfg.Wallet.KeypairPath),
		)
		return nil
	}

	if err := cfg.Solana.Validate(); err != nil {
		return err
	}
	owner, err := target(cfg)
	if err != nil {
		return err
	}

	rpc := cfg.Solana.Client()
	confirmer, closeWS, err := cfg.Solana.Confirmer(ctx)
	if err != nil {
		return err
	}
	defer closeWS()
	svc := wallet.NewService(rpc, confirmer)

	switch command {
	case "balance":
		bal, err := svc.Balance(ctx, owner)
		if err != nil {
			return err
		}
		logger.InfoCtx(ctx, "Wallet balance",
			zap.String("address", bal.Address),
			zap.Uint64("lamports", bal.Lamports),
			zap.String("sol", bal.SOL.String()),
		)

	case "airdrop":
		sig, err := svc.Airdrop(ctx, owner, *lamports)
		if err != nil {
			return err
		}
		logger.InfoCtx(ctx, "Airdrop confirmed", zap.String("signature", sig))

	case "tokens":
		if len(cfg.Mints) == 0 {
			return fmt.Errorf("%w: mints", config.ErrMissing)
		}
		keys := make([]common.PublicKey, 0, len(cfg.Mints))
		for _, m := range cfg.Mints {
			pk, err := config.ParsePublicKey(strings.TrimSpace(m))
			if err != nil {
				return err
			}
			keys = append(keys, pk)
		}
		balances, err := svc.TokenBalances(ctx, owner, keys)
		if err != nil {
			return err
		}
		for _, b := range balances {
			logger.InfoCtx(ctx, "Token balance",
				zap.String("mint", b.Mint),
				zap.String("token_account", b.TokenAccount),
				zap.Bool("exists", b.Exists),
				zap.String("amount", b.UIAmount.String()),
				zap.String("supply", b.UISupply.String()),
				zap.Uint16("fee_basis_points", b.FeeBasisPoints),
			)
		}

	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// target is the -address flag, or the configured wallet's public key.
func target(cfg *config.WalletConfig) (common.PublicKey, error) {
	if *address != "" {
		return config.ParsePublicKey(*address)
	}
	acc, err := cfg.Wallet.Account()
	if err != nil {
		return common.PublicKey{}, err
	}
	return acc.PublicKey, nil
}
