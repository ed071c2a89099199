package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"solana-taxed-token/internal/provision"
	"solana-taxed-token/internal/solana"
	"solana-taxed-token/internal/token2022"
)

// ErrMissing is returned when a required endpoint or secret is not configured.
var ErrMissing = errors.New("missing required configuration")

// EnvPrefix prefixes every environment variable, e.g. TAXED_TOKEN_SOLANA_RPC_URL.
const EnvPrefix = "TAXED_TOKEN"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// SolanaConfig holds ledger endpoint configuration
type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	WSURL          string        `mapstructure:"ws_url"` // optional; confirmations poll when empty
	Commitment     string        `mapstructure:"commitment"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// KeyConfig locates the fee payer key. PrivateKey (base58) wins over KeypairPath.
type KeyConfig struct {
	KeypairPath string `mapstructure:"keypair_path"`
	PrivateKey  string `mapstructure:"private_key"`
}

// TokenConfig holds the deployment parameters
type TokenConfig struct {
	Name             string            `mapstructure:"name"`
	Symbol           string            `mapstructure:"symbol"`
	URI              string            `mapstructure:"uri"`
	Decimals         uint8             `mapstructure:"decimals"`
	FeeBasisPoints   uint16            `mapstructure:"fee_basis_points"`
	MaxFee           uint64            `mapstructure:"max_fee"`
	Placement        string            `mapstructure:"placement"`
	MetadataProgram  string            `mapstructure:"metadata_program"`
	AdditionalFields map[string]string `mapstructure:"additional_fields"`
	ReceiptPath      string            `mapstructure:"receipt_path"`
}

// PostgresConfig holds Postgres pool configuration
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	Backend  string         `mapstructure:"backend"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int      `mapstructure:"idle_timeout"`  // in seconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// DeployConfig holds configuration for the deploy command
type DeployConfig struct {
	BaseConfig `mapstructure:",squash"`
	Solana     SolanaConfig   `mapstructure:"solana"`
	Wallet     KeyConfig      `mapstructure:"wallet"`
	Token      TokenConfig    `mapstructure:"token"`
	Database   DatabaseConfig `mapstructure:"database"`
}

// TransferSettings holds the taxed transfer parameters
type TransferSettings struct {
	Mint      string `mapstructure:"mint"`
	Recipient string `mapstructure:"recipient"` // empty generates a throwaway recipient
	Amount    uint64 `mapstructure:"amount"`    // whole tokens
}

// TransferConfig holds configuration for the transfer command
type TransferConfig struct {
	BaseConfig `mapstructure:",squash"`
	Solana     SolanaConfig     `mapstructure:"solana"`
	Wallet     KeyConfig        `mapstructure:"wallet"`
	Transfer   TransferSettings `mapstructure:"transfer"`
}

// WalletConfig holds configuration for the wallet command
type WalletConfig struct {
	BaseConfig `mapstructure:",squash"`
	Solana     SolanaConfig `mapstructure:"solana"`
	Wallet     KeyConfig    `mapstructure:"wallet"`
	Mints      []string     `mapstructure:"mints"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
}

// LoadDeployConfig loads configuration for the deploy command
func LoadDeployConfig(configFile string, envPath string) (*DeployConfig, error) {
	v := configureViper("deploy", configFile, envPath)

	setSolanaDefaults(v)
	v.SetDefault("token.decimals", 6)
	v.SetDefault("token.fee_basis_points", 500)
	v.SetDefault("token.max_fee", uint64(1_000_000_000_000_000_000))
	v.SetDefault("token.placement", string(provision.PlacementEmbedded))
	v.SetDefault("token.receipt_path", "deployment-info.json")
	v.SetDefault("database.backend", "")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg DeployConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadTransferConfig loads configuration for the transfer command
func LoadTransferConfig(configFile string, envPath string) (*TransferConfig, error) {
	v := configureViper("transfer", configFile, envPath)

	setSolanaDefaults(v)
	v.SetDefault("transfer.amount", 100)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg TransferConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWalletConfig loads configuration for the wallet command. The key is
// not required since the command can create one.
func LoadWalletConfig(configFile string, envPath string) (*WalletConfig, error) {
	v := configureViper("wallet", configFile, envPath)

	setSolanaDefaults(v)
	v.SetDefault("wallet.keypair_path", "wallet.json")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg WalletConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.backend", BackendMemory)
	v.SetDefault("database.mongo.database", "taxed_token")
	v.SetDefault("database.postgres.max_conns", 10)
	v.SetDefault("database.postgres.min_conns", 2)
	v.SetDefault("database.postgres.max_conn_lifetime", time.Hour)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the deploy configuration before any remote call.
func (c *DeployConfig) Validate() error {
	if err := c.Solana.Validate(); err != nil {
		return err
	}
	if err := c.Wallet.Validate(); err != nil {
		return err
	}
	if _, err := provision.ParsePlacement(c.Token.Placement); err != nil {
		return err
	}
	if c.Token.FeeBasisPoints > token2022.MaxFeeBasisPoints {
		return fmt.Errorf("%w: %d", token2022.ErrInvalidFeeBasisPoints, c.Token.FeeBasisPoints)
	}
	if c.Database.Backend != "" {
		return c.Database.Validate()
	}
	return nil
}

// Params converts the token section to provisioning parameters.
func (c *DeployConfig) Params() (provision.Params, error) {
	placement, err := provision.ParsePlacement(c.Token.Placement)
	if err != nil {
		return provision.Params{}, err
	}

	p := provision.Params{
		Name:           c.Token.Name,
		Symbol:         c.Token.Symbol,
		URI:            c.Token.URI,
		Decimals:       c.Token.Decimals,
		FeeBasisPoints: c.Token.FeeBasisPoints,
		MaxFee:         c.Token.MaxFee,
		Placement:      placement,
	}
	if c.Token.MetadataProgram != "" {
		pk, err := ParsePublicKey(c.Token.MetadataProgram)
		if err != nil {
			return provision.Params{}, fmt.Errorf("metadata_program: %w", err)
		}
		p.MetadataProgram = pk
	}
	for _, key := range sortedKeys(c.Token.AdditionalFields) {
		p.AdditionalFields = append(p.AdditionalFields, token2022.MetadataField{Key: key, Value: c.Token.AdditionalFields[key]})
	}
	return p, nil
}

// Validate checks the transfer configuration.
func (c *TransferConfig) Validate() error {
	if err := c.Solana.Validate(); err != nil {
		return err
	}
	if err := c.Wallet.Validate(); err != nil {
		return err
	}
	if c.Transfer.Mint == "" {
		return fmt.Errorf("%w: transfer.mint", ErrMissing)
	}
	return nil
}

// Validate requires an RPC endpoint.
func (c *SolanaConfig) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("%w: solana.rpc_url (or HELIUS_RPC_URL)", ErrMissing)
	}
	switch solana.Commitment(c.Commitment) {
	case "", solana.CommitmentProcessed, solana.CommitmentConfirmed, solana.CommitmentFinalized:
		return nil
	default:
		return fmt.Errorf("unknown commitment %q", c.Commitment)
	}
}

// Validate requires some key material.
func (c *KeyConfig) Validate() error {
	if strings.TrimSpace(c.PrivateKey) == "" && strings.TrimSpace(c.KeypairPath) == "" {
		return fmt.Errorf("%w: wallet.private_key (or TEST_TAX_WALLET_PRIVATE_KEY) or wallet.keypair_path", ErrMissing)
	}
	return nil
}

// Validate checks the selected backend has its connection settings.
func (c *DatabaseConfig) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("%w: database.postgres.dsn", ErrMissing)
		}
		return nil
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("%w: database.mongo.uri", ErrMissing)
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("%w: database.mongo.database", ErrMissing)
		}
		return nil
	default:
		return fmt.Errorf("unknown database backend %q", c.Backend)
	}
}

// Address returns host:port.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setSolanaDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.request_timeout", 30*time.Second)
	v.SetDefault("solana.confirm_timeout", provision.DefaultConfirmTimeout)
	v.SetDefault("solana.max_retries", 3)
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// legacyEnv maps config keys to the variable names the deployment scripts
// have always read. The prefixed name is checked first.
var legacyEnv = map[string]string{
	"solana.rpc_url":     "HELIUS_RPC_URL",
	"wallet.private_key": "TEST_TAX_WALLET_PRIVATE_KEY",
	"token.uri":          "MEME_COIN_IMAGE_URI",
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Solana
		"solana.rpc_url",
		"solana.ws_url",
		"solana.commitment",
		"solana.request_timeout",
		"solana.confirm_timeout",
		"solana.max_retries",
		// Wallet
		"wallet.keypair_path",
		"wallet.private_key",
		// Token
		"token.name",
		"token.symbol",
		"token.uri",
		"token.decimals",
		"token.fee_basis_points",
		"token.max_fee",
		"token.placement",
		"token.metadata_program",
		"token.receipt_path",
		// Transfer
		"transfer.mint",
		"transfer.recipient",
		"transfer.amount",
		// Database
		"database.backend",
		"database.postgres.dsn",
		"database.postgres.max_conns",
		"database.postgres.min_conns",
		"database.postgres.max_conn_lifetime",
		"database.mongo.uri",
		"database.mongo.database",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_origins",
		"mints",
	}

	for _, key := range keys {
		env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if legacy, ok := legacyEnv[key]; ok {
			_ = v.BindEnv(key, env, legacy)
			continue
		}
		_ = v.BindEnv(key, env)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}
