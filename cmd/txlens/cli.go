package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	txlens "github.com/chainsight/txlens"
	"github.com/chainsight/txlens/common/cliapp"
	"github.com/chainsight/txlens/config"
	"github.com/chainsight/txlens/database"
	"github.com/chainsight/txlens/flags"
)

var (
	txHashFlag = &cli.StringFlag{
		Name:     "tx",
		Usage:    "Transaction hash to analyze",
		Required: true,
	}
	secondTxHashFlag = &cli.StringFlag{
		Name:     "other",
		Usage:    "Second transaction hash for comparison",
		Required: true,
	}
)

func runService(ctx *cli.Context) (cliapp.Lifecycle, error) {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Error("failed to load config", "error", err)
		return nil, err
	}
	return txlens.NewTxLens(ctx.Context, &cfg)
}

func runAnalyze(ctx *cli.Context) error {
	lens, err := newLens(ctx)
	if err != nil {
		return err
	}
	defer lens.Stop(ctx.Context)

	result, err := lens.AnalyzeTransaction(ctx.Context, ctx.String(txHashFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runCompare(ctx *cli.Context) error {
	lens, err := newLens(ctx)
	if err != nil {
		return err
	}
	defer lens.Stop(ctx.Context)

	comparison, err := lens.CompareTransactions(ctx.Context,
		ctx.String(txHashFlag.Name), ctx.String(secondTxHashFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(comparison)
}

func runMetrics(ctx *cli.Context) error {
	lens, err := newLens(ctx)
	if err != nil {
		return err
	}
	defer lens.Stop(ctx.Context)

	result, err := lens.AnalyzeTransaction(ctx.Context, ctx.String(txHashFlag.Name))
	if err != nil {
		return err
	}
	fmt.Println(lens.Metrics().GetMetrics().GetSummaryReport())
	log.Info("analysis complete", "txHash", result.TxHash, "pattern", result.Pattern.Primary.Type)
	return nil
}

func runMigrations(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Error("failed to load config", "error", err)
		return err
	}

	db, err := database.NewDB(ctx.Context, cfg.MasterDB)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	return db.ExecuteSQLMigration(ctx.String(flags.MigrationsFlag.Name))
}

func newLens(ctx *cli.Context) (*txlens.TxLens, error) {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Error("failed to load config", "error", err)
		return nil, err
	}
	return txlens.NewTxLens(ctx.Context, &cfg)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func NewCli() *cli.App {
	myFlags := flags.Flags
	return &cli.App{
		Version:              "v0.1.0",
		Description:          "Call-trace analysis for EVM transactions",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:        "serve",
				Description: "Runs the analysis service until interrupted",
				Flags:       myFlags,
				Action:      cliapp.LifecycleCmd(runService),
			},
			{
				Name:        "analyze",
				Description: "Analyzes a single transaction and prints the result",
				Flags:       append([]cli.Flag{txHashFlag}, myFlags...),
				Action:      runAnalyze,
			},
			{
				Name:        "compare",
				Description: "Analyzes two transactions and prints the differences",
				Flags:       append([]cli.Flag{txHashFlag, secondTxHashFlag}, myFlags...),
				Action:      runCompare,
			},
			{
				Name:        "metrics",
				Description: "Analyzes a transaction and prints engine metrics",
				Flags:       append([]cli.Flag{txHashFlag}, myFlags...),
				Action:      runMetrics,
			},
			{
				Name:        "migrate",
				Description: "Runs the SQL migrations against the analysis archive",
				Flags:       myFlags,
				Action:      runMigrations,
			},
			{
				Name:        "version",
				Description: "print version",
				Action: func(ctx *cli.Context) error {
					cli.ShowVersion(ctx)
					return nil
				},
			},
		},
	}
}
