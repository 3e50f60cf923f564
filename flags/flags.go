package flags

import (
	"time"

	"github.com/urfave/cli/v2"
)

const envVarPrefix = "TXLENS"

func prefixEnvVars(name string) []string {
	return []string{envVarPrefix + "_" + name}
}

var (
	ChainRpcFlag = &cli.StringFlag{
		Name:     "chain-rpc",
		Usage:    "HTTP provider URL of an archive node with trace support",
		EnvVars:  prefixEnvVars("CHAIN_RPC"),
		Required: true,
	}
	ChainIdFlag = &cli.UintFlag{
		Name:    "chain-id",
		Usage:   "Chain id of the network",
		EnvVars: prefixEnvVars("CHAIN_ID"),
		Value:   1,
	}
	TrackedContractsFlag = &cli.StringSliceFlag{
		Name:    "tracked-contracts",
		Usage:   "Contract addresses with a full function decode table",
		EnvVars: prefixEnvVars("TRACKED_CONTRACTS"),
	}
	CacheTTLFlag = &cli.DurationFlag{
		Name:    "cache-ttl",
		Usage:   "Time-to-live of cached analyses",
		EnvVars: prefixEnvVars("CACHE_TTL"),
		Value:   5 * time.Minute,
	}
	AdvancedMevFlag = &cli.BoolFlag{
		Name:    "advanced-mev",
		Usage:   "Run the advanced MEV detectors",
		EnvVars: prefixEnvVars("ADVANCED_MEV"),
		Value:   true,
	}
	GraphFlag = &cli.BoolFlag{
		Name:    "graphs",
		Usage:   "Include visualization-ready graph projections",
		EnvVars: prefixEnvVars("GRAPHS"),
		Value:   true,
	}

	MasterDbHostFlag = &cli.StringFlag{
		Name:    "master-db-host",
		Usage:   "Postgres host of the analysis archive (archive disabled when empty)",
		EnvVars: prefixEnvVars("MASTER_DB_HOST"),
	}
	MasterDbPortFlag = &cli.IntFlag{
		Name:    "master-db-port",
		Usage:   "Postgres port of the analysis archive",
		EnvVars: prefixEnvVars("MASTER_DB_PORT"),
		Value:   5432,
	}
	MasterDbNameFlag = &cli.StringFlag{
		Name:    "master-db-name",
		Usage:   "Postgres database name of the analysis archive",
		EnvVars: prefixEnvVars("MASTER_DB_NAME"),
	}
	MasterDbUserFlag = &cli.StringFlag{
		Name:    "master-db-user",
		Usage:   "Postgres user of the analysis archive",
		EnvVars: prefixEnvVars("MASTER_DB_USER"),
	}
	MasterDbPasswordFlag = &cli.StringFlag{
		Name:    "master-db-password",
		Usage:   "Postgres password of the analysis archive",
		EnvVars: prefixEnvVars("MASTER_DB_PASSWORD"),
	}
	MigrationsFlag = &cli.StringFlag{
		Name:    "migrations-dir",
		Usage:   "Path to the SQL migration scripts",
		EnvVars: prefixEnvVars("MIGRATIONS_DIR"),
		Value:   "./migrations",
	}
)

// Flags contains the full set of txlens CLI flags
var Flags = []cli.Flag{
	ChainRpcFlag,
	ChainIdFlag,
	TrackedContractsFlag,
	CacheTTLFlag,
	AdvancedMevFlag,
	GraphFlag,
	MasterDbHostFlag,
	MasterDbPortFlag,
	MasterDbNameFlag,
	MasterDbUserFlag,
	MasterDbPasswordFlag,
	MigrationsFlag,
}
