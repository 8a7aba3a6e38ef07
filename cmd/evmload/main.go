// Command evmload submits deploy/call/query/balance workloads against an
// Ethereum-compatible JSON-RPC endpoint through the self-tuning concurrent
// executor, the same operational shape cmd/indexer/main.go uses for its
// long-running service: zerolog + koanf ambient setup, a background metrics
// server, and a context cancelled on shutdown signal — except evmload runs
// one batch to completion and exits rather than looping forever.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/0xkanth/evmload/internal/addressbook"
	"github.com/0xkanth/evmload/internal/appconfig"
	"github.com/0xkanth/evmload/internal/batchconfig"
	"github.com/0xkanth/evmload/internal/chain"
	"github.com/0xkanth/evmload/internal/executor"
	"github.com/0xkanth/evmload/internal/job"
	"github.com/0xkanth/evmload/internal/logging"
	"github.com/0xkanth/evmload/internal/reporting"
	"github.com/0xkanth/evmload/internal/txhelper"
	"github.com/0xkanth/evmload/pkg/models"
)

func main() {
	logger := logging.Init()

	root := &cobra.Command{
		Use:   "evmload",
		Short: "submit deploy/call/query/balance workloads under a self-tuning concurrency limit",
	}

	var (
		rpcURL      string
		chainID     int64
		configFile  string
		metricsAddr string
		natsURL     string
		addrBookDB  string
	)

	root.PersistentFlags().StringVarP(&rpcURL, "rpc-url", "u", "", "JSON-RPC endpoint URL")
	root.PersistentFlags().Int64Var(&chainID, "chain-id", 0, "expected chain ID (0 skips verification)")
	root.PersistentFlags().StringVar(&configFile, "toml-config", "", "optional evmload.toml path")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus metrics listen address")
	root.PersistentFlags().StringVar(&natsURL, "nats-url", "", "optional NATS URL for batch reporting")
	root.PersistentFlags().StringVar(&addrBookDB, "address-book", "", "bbolt address book path")

	account := &cobra.Command{Use: "account", Short: "account operations"}
	balance := &cobra.Command{
		Use:   "balance ADDRESS",
		Short: "fetch an account's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(configFile, rpcURL, chainID, metricsAddr, natsURL, addrBookDB, logger)
			if err != nil {
				return err
			}
			return runBalance(cmd.Context(), cfg, logger, args[0])
		},
	}
	account.AddCommand(balance)

	contract := &cobra.Command{Use: "contract", Short: "contract operations"}
	deploy := &cobra.Command{
		Use:   "deploy",
		Short: "deploy a batch of contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(configFile, rpcURL, chainID, metricsAddr, natsURL, addrBookDB, logger)
			if err != nil {
				return err
			}
			return runDeploy(cmd.Context(), cfg, logger, mustFlag(cmd, "config"))
		},
	}
	deploy.Flags().String("config", "", "deploy batch JSON file")

	call := &cobra.Command{
		Use:   "call",
		Short: "submit a batch of state-changing calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(configFile, rpcURL, chainID, metricsAddr, natsURL, addrBookDB, logger)
			if err != nil {
				return err
			}
			return runCall(cmd.Context(), cfg, logger, mustFlag(cmd, "config"))
		},
	}
	call.Flags().String("config", "", "call batch JSON file")

	query := &cobra.Command{
		Use:   "query",
		Short: "submit a batch of read-only queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(configFile, rpcURL, chainID, metricsAddr, natsURL, addrBookDB, logger)
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), cfg, logger, mustFlag(cmd, "config"))
		},
	}
	query.Flags().String("config", "", "query batch JSON file")

	contract.AddCommand(deploy, call, query)
	root.AddCommand(account, contract)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("evmload failed")
	}
}

func mustFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// mergeConfig layers CLI flags over evmload.toml / environment, with
// explicit flags taking precedence when set.
func mergeConfig(configFile, rpcURL string, chainID int64, metricsAddr, natsURL, addrBookDB string, logger *zerolog.Logger) (appconfig.Config, error) {
	cfg, err := appconfig.Load(configFile)
	if err != nil {
		return appconfig.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	logging.UpdateLevel(cfg.LogLevel, logger)

	if rpcURL != "" {
		cfg.RPCURL = rpcURL
	}
	if chainID != 0 {
		cfg.ChainID = chainID
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if natsURL != "" {
		cfg.NATSURL = natsURL
	}
	if addrBookDB != "" {
		cfg.AddressBookPath = addrBookDB
	}

	if cfg.RPCURL == "" {
		return appconfig.Config{}, fmt.Errorf("--rpc-url (or config rpc_url) is required")
	}

	return cfg, nil
}

func startMetricsServer(addr string, logger *zerolog.Logger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: promhttp.Handler()}
	go func() {
		logger.Info().Str("address", addr).Msg("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	return srv
}

func stopMetricsServer(srv *http.Server, logger *zerolog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server shutdown error")
	}
}

func publishReport(ctx context.Context, cfg appconfig.Config, logger *zerolog.Logger, mode string, result executor.BatchResult, jobCount int) {
	if cfg.NATSURL == "" {
		return
	}

	pub, err := reporting.NewPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("skipping batch report: failed to connect to NATS")
		return
	}
	defer pub.Close()

	report := models.BatchReport{
		Mode:           mode,
		Successes:      result.Successes,
		TotalElapsedMs: result.TotalElapsedMs,
		JobCount:       jobCount,
		FinalLimit:     result.FinalLimit,
		FinishedAt:     time.Now(),
	}
	if err := pub.PublishReport(ctx, report); err != nil {
		logger.Warn().Err(err).Msg("failed to publish batch report")
	}
}

func printResult(mode string, result executor.BatchResult, jobCount int) {
	fmt.Printf("%s: success task: %d total times: %d average time: %d (of %d submitted)\n",
		mode, result.Successes, result.TotalElapsedMs, result.AverageMs(), jobCount)
}

func runDeploy(ctx context.Context, cfg appconfig.Config, logger *zerolog.Logger, configPath string) error {
	batch, err := batchconfig.LoadDeployBatch(configPath)
	if err != nil {
		return err
	}

	client, err := chain.NewClient(cfg.RPCURL, cfg.ChainID, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	helper := txhelper.NewHelper(client.Raw(), 2, 1, *logger)
	book, err := addressbook.Open(cfg.AddressBookPath)
	if err != nil {
		return err
	}
	defer book.Close()

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger)
	defer stopMetricsServer(metricsSrv, logger)

	results := make([]*job.DeployResult, len(batch.Deploys))
	jobs := make([]executor.Job, len(batch.Deploys))
	for i, spec := range batch.Deploys {
		results[i] = &job.DeployResult{}
		jobs[i] = job.NewDeployJob(client, helper, spec, results[i])
	}

	exec := executor.NewWithTunables(executor.SystemClock, cfg.Tunables())
	result, err := exec.ExecuteBatch(ctx, jobs)
	if err != nil {
		return err
	}

	for i, spec := range batch.Deploys {
		if spec.Label == "" || results[i].Address == (common.Address{}) {
			continue
		}
		entry := models.AddressBookEntry{
			Label:          spec.Label,
			Address:        results[i].Address,
			TxHash:         results[i].TxHash,
			DeployedAtUnix: time.Now().UnixMilli(),
		}
		if err := book.Put(entry); err != nil {
			logger.Warn().Err(err).Str("label", spec.Label).Msg("failed to record address book entry")
		}
	}

	printResult("deploy", result, len(batch.Deploys))
	publishReport(ctx, cfg, logger, "deploy", result, len(batch.Deploys))
	return nil
}

func runCall(ctx context.Context, cfg appconfig.Config, logger *zerolog.Logger, configPath string) error {
	batch, err := batchconfig.LoadCallBatch(configPath)
	if err != nil {
		return err
	}

	client, err := chain.NewClient(cfg.RPCURL, cfg.ChainID, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	helper := txhelper.NewHelper(client.Raw(), 2, 1, *logger)
	book, err := addressbook.Open(cfg.AddressBookPath)
	if err != nil {
		return err
	}
	defer book.Close()

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger)
	defer stopMetricsServer(metricsSrv, logger)

	jobs := make([]executor.Job, len(batch.Calls))
	for i, spec := range batch.Calls {
		resolved, err := book.ResolveAddress(spec.ContractAddr)
		if err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
		jobs[i] = job.NewCallJob(client, helper, spec, common.HexToAddress(resolved), &job.CallResult{})
	}

	exec := executor.NewWithTunables(executor.SystemClock, cfg.Tunables())
	result, err := exec.ExecuteBatch(ctx, jobs)
	if err != nil {
		return err
	}

	printResult("call", result, len(batch.Calls))
	publishReport(ctx, cfg, logger, "call", result, len(batch.Calls))
	return nil
}

func runQuery(ctx context.Context, cfg appconfig.Config, logger *zerolog.Logger, configPath string) error {
	batch, err := batchconfig.LoadQueryBatch(configPath)
	if err != nil {
		return err
	}

	client, err := chain.NewClient(cfg.RPCURL, cfg.ChainID, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	book, err := addressbook.Open(cfg.AddressBookPath)
	if err != nil {
		return err
	}
	defer book.Close()

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger)
	defer stopMetricsServer(metricsSrv, logger)

	jobs := make([]executor.Job, len(batch.Queries))
	results := make([]*job.QueryResult, len(batch.Queries))
	for i, spec := range batch.Queries {
		resolved, err := book.ResolveAddress(spec.ContractAddr)
		if err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
		jobs[i], results[i] = job.NewQueryJob(client, spec, common.HexToAddress(resolved))
	}

	exec := executor.NewWithTunables(executor.SystemClock, cfg.Tunables())
	result, err := exec.ExecuteBatch(ctx, jobs)
	if err != nil {
		return err
	}

	for i, r := range results {
		if r.Values != nil {
			fmt.Printf("query %d: %v\n", i, r.Values)
		}
	}

	printResult("query", result, len(batch.Queries))
	publishReport(ctx, cfg, logger, "query", result, len(batch.Queries))
	return nil
}

func runBalance(ctx context.Context, cfg appconfig.Config, logger *zerolog.Logger, account string) error {
	client, err := chain.NewClient(cfg.RPCURL, cfg.ChainID, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	result := &job.BalanceResult{}
	j := job.NewBalanceJob(client, common.HexToAddress(account), result)

	exec := executor.NewWithTunables(executor.SystemClock, cfg.Tunables())
	if _, err := exec.ExecuteBatch(ctx, []executor.Job{j}); err != nil {
		return err
	}

	fmt.Printf("balance of %s: %s wei\n", account, result.Wei.String())
	return nil
}
