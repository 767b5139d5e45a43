// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"deposit-service/internal/domain"
	"deposit-service/pkg/jwtutil"
)

// Event backends
const (
	EventsRedis = "redis"
	EventsKafka = "kafka"
	EventsNone  = "none"
)

// Tron transports
const (
	TronGRPC = "grpc"
	TronHTTP = "http"
)

type Config struct {
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Redis    RedisConfig
	Events   EventsConfig
	Ethereum EthereumConfig
	Solana   SolanaConfig
	Tron     TronConfig
	JWT      JWTConfig
	Rate     RateConfig
	Worker   WorkerConfig
	Tokens   TokenConfig

	// RPCTimeout bounds every chain lookup
	RPCTimeout time.Duration `env:"RPC_TIMEOUT" envDefault:"20s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type EventsConfig struct {
	Backend      string   `env:"EVENTS_BACKEND" envDefault:"redis"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string   `env:"EVENTS_TOPIC" envDefault:"deposits.events"`
}

type EthereumConfig struct {
	RPCURL           string `env:"BASE_RPC_URL" envDefault:"https://mainnet.base.org"`
	MinConfirmations uint64 `env:"ETH_MIN_CONFIRMATIONS" envDefault:"1"`
}

type SolanaConfig struct {
	RPCURL string `env:"SOLANA_RPC_URL" envDefault:"https://api.mainnet-beta.solana.com"`
}

type TronConfig struct {
	// grpc reads the full node, http with Solidity reads solidified blocks
	Transport string `env:"TRON_TRANSPORT" envDefault:"http"`
	GRPCAddr  string `env:"TRON_GRPC_ADDR" envDefault:"grpc.trongrid.io:50051"`
	HTTPURL   string `env:"TRON_HTTP_URL" envDefault:"https://api.trongrid.io"`
	APIKey    string `env:"TRON_API_KEY"`
	// Solidity restricts HTTP lookups to solidified blocks
	Solidity bool `env:"TRON_SOLIDITY" envDefault:"true"`
}

type JWTConfig struct {
	PubPath  string `env:"JWT_PUBLIC_KEY_PATH" envDefault:"/app/secrets/jwt_public.pem"`
	Issuer   string `env:"JWT_ISSUER"`
	Audience string `env:"JWT_AUDIENCE"`
}

type RateConfig struct {
	Limit  int           `env:"RATE_LIMIT" envDefault:"10"`
	Window time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	Block  time.Duration `env:"RATE_BLOCK" envDefault:"5m"`
}

type WorkerConfig struct {
	Enabled   bool          `env:"PENDING_SCAN_ENABLED" envDefault:"true"`
	Interval  time.Duration `env:"PENDING_SCAN_INTERVAL" envDefault:"1m"`
	BatchSize int           `env:"PENDING_BATCH_SIZE" envDefault:"50"`
}

// TokenConfig overrides the mainnet stablecoin contracts, e.g. for testnets
type TokenConfig struct {
	BaseUSDT   string `env:"BASE_USDT_CONTRACT"`
	BaseUSDC   string `env:"BASE_USDC_CONTRACT"`
	SolanaUSDT string `env:"SOLANA_USDT_MINT"`
	SolanaUSDC string `env:"SOLANA_USDC_MINT"`
	TronUSDT   string `env:"TRON_USDT_CONTRACT"`
	TronUSDC   string `env:"TRON_USDC_CONTRACT"`
}

// Load reads .env when present, then the environment
func Load(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on system env vars")
	}
	return Parse()
}

// Parse builds the config from the environment and validates it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Events.Backend = strings.ToLower(strings.TrimSpace(cfg.Events.Backend))
	cfg.Tron.Transport = strings.ToLower(strings.TrimSpace(cfg.Tron.Transport))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required and mutually dependent settings
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.RPCTimeout <= 0 {
		errs = append(errs, errors.New("RPC_TIMEOUT must be positive"))
	}

	switch c.Events.Backend {
	case EventsRedis, EventsNone:
	case EventsKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when EVENTS_BACKEND=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_BACKEND %q", c.Events.Backend))
	}

	switch c.Tron.Transport {
	case TronGRPC:
		if c.Tron.GRPCAddr == "" {
			errs = append(errs, errors.New("TRON_GRPC_ADDR is required when TRON_TRANSPORT=grpc"))
		}
	case TronHTTP:
		if c.Tron.HTTPURL == "" {
			errs = append(errs, errors.New("TRON_HTTP_URL is required when TRON_TRANSPORT=http"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TRON_TRANSPORT %q", c.Tron.Transport))
	}

	if c.Ethereum.RPCURL == "" {
		errs = append(errs, errors.New("BASE_RPC_URL is required"))
	}
	if c.Solana.RPCURL == "" {
		errs = append(errs, errors.New("SOLANA_RPC_URL is required"))
	}
	if c.JWT.PubPath == "" {
		errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required"))
	}
	if c.Rate.Limit <= 0 || c.Rate.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_WINDOW must be positive"))
	}
	if c.Worker.BatchSize <= 0 {
		errs = append(errs, errors.New("PENDING_BATCH_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

// TokenOverrides returns the per-network contract overrides
func (c *Config) TokenOverrides() map[domain.Network]domain.TokenContracts {
	return map[domain.Network]domain.TokenContracts{
		domain.NetworkBase:   {USDT: c.Tokens.BaseUSDT, USDC: c.Tokens.BaseUSDC},
		domain.NetworkSolana: {USDT: c.Tokens.SolanaUSDT, USDC: c.Tokens.SolanaUSDC},
		domain.NetworkTron:   {USDT: c.Tokens.TronUSDT, USDC: c.Tokens.TronUSDC},
	}
}

func (c *Config) JWTVerifierConfig() jwtutil.JWTConfig {
	return jwtutil.JWTConfig{
		PubPath:  c.JWT.PubPath,
		Issuer:   c.JWT.Issuer,
		Audience: c.JWT.Audience,
	}
}
