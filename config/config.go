package config

import (
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/chainsight/txlens/flags"
)

type Config struct {
	Chain    ChainConfig
	MasterDB DBConfig
	Analysis AnalysisConfig
}

type ChainConfig struct {
	ChainRpcUrl      string
	ChainId          uint
	TrackedContracts []common.Address
}

type DBConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// Enabled reports whether the analysis archive should be wired.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type AnalysisConfig struct {
	CacheTTL     time.Duration
	AdvancedMev  bool
	IncludeGraph bool
}

func LoadConfig(cliCtx *cli.Context) (Config, error) {
	cfg := NewConfig(cliCtx)
	log.Info("loaded chain config", "rpc", cfg.Chain.ChainRpcUrl, "chainId", cfg.Chain.ChainId,
		"tracked", len(cfg.Chain.TrackedContracts))
	return cfg, nil
}

func NewConfig(cliCtx *cli.Context) Config {
	return Config{
		Chain: ChainConfig{
			ChainRpcUrl:      cliCtx.String(flags.ChainRpcFlag.Name),
			ChainId:          cliCtx.Uint(flags.ChainIdFlag.Name),
			TrackedContracts: parseContracts(cliCtx.StringSlice(flags.TrackedContractsFlag.Name)),
		},
		MasterDB: DBConfig{
			Host:     cliCtx.String(flags.MasterDbHostFlag.Name),
			Port:     cliCtx.Int(flags.MasterDbPortFlag.Name),
			Name:     cliCtx.String(flags.MasterDbNameFlag.Name),
			User:     cliCtx.String(flags.MasterDbUserFlag.Name),
			Password: cliCtx.String(flags.MasterDbPasswordFlag.Name),
		},
		Analysis: AnalysisConfig{
			CacheTTL:     cliCtx.Duration(flags.CacheTTLFlag.Name),
			AdvancedMev:  cliCtx.Bool(flags.AdvancedMevFlag.Name),
			IncludeGraph: cliCtx.Bool(flags.GraphFlag.Name),
		},
	}
}

func parseContracts(raw []string) []common.Address {
	contracts := make([]common.Address, 0, len(raw))
	for _, addr := range raw {
		if !common.IsHexAddress(addr) {
			log.Warn("ignoring invalid tracked contract address", "address", addr)
			continue
		}
		contracts = append(contracts, common.HexToAddress(addr))
	}
	return contracts
}

type fileConfig struct {
	ChainRpcUrl      string   `yaml:"chainRpcUrl"`
	ChainId          uint     `yaml:"chainId"`
	TrackedContracts []string `yaml:"trackedContracts"`
	CacheTTL         string   `yaml:"cacheTTL"`
	DB               DBConfig `yaml:"db"`
}

// LoadFromFile reads a YAML config file, used by tooling and tests that run
// without CLI flags.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Chain: ChainConfig{
			ChainRpcUrl:      fc.ChainRpcUrl,
			ChainId:          fc.ChainId,
			TrackedContracts: parseContracts(fc.TrackedContracts),
		},
		MasterDB: fc.DB,
		Analysis: AnalysisConfig{
			CacheTTL:     5 * time.Minute,
			AdvancedMev:  true,
			IncludeGraph: true,
		},
	}

	if fc.CacheTTL != "" {
		ttl, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return Config{}, err
		}
		cfg.Analysis.CacheTTL = ttl
	}

	return cfg, nil
}
