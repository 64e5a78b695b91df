package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assetcrawler/import-services/models"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/util"
	"github.com/assetcrawler/import-services/util/cli"
	"github.com/assetcrawler/import-services/web"
	"github.com/assetcrawler/import-services/workers"
	"github.com/spf13/cobra"
)

var opts = &cli.Options{}

var rootCmd = &cobra.Command{
	Use:   "import_crawler",
	Short: "Queue one import message per iStock file in the import directory",
	Long: `import_crawler lists the configured import directory (Dropbox, S3 or a
local path), picks out files named iStock_<id>_<suffix>, and sends one
import message per file to the configured queue (SQS or NSQ).

The crawler keeps no state between runs. Every run queues every file it
finds, so downstream consumers must tolerate duplicates.

` + cli.EnvMessage,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service that triggers imports",
	Long: `Start the HTTP service. Endpoints:

  GET  /import/full     run a full import, 200 when every message was attempted
  GET  /import/runs     recent run summaries (in-memory unless REDIS_URL is set)
  POST /import/cleanup  empty the catalog tables (needs DATABASE_URL)
  GET  /metrics         Prometheus metrics
  GET  /healthz         liveness check

If PID_FILE is set, serve refuses to start while another live process
holds that file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full import and exit",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete all assets, tags and tag relations from the catalog",
	Long: `Delete every row from the asset, tag and asset_tag_relation tables in
one transaction. This is never done as part of an import. Requires
DATABASE_URL and the --yes flag.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Print recent import run summaries as JSON",
	Args:  cobra.NoArgs,
	RunE:  runListRuns,
}

var (
	confirmCleanup bool
	runsLimit      int
)

func init() {
	cli.AddFlags(rootCmd, opts)
	cleanupCmd.Flags().BoolVar(&confirmCleanup, "yes", false, "Confirm that the catalog tables should be emptied")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "Number of summaries to print")
	rootCmd.AddCommand(serveCmd, runCmd, cleanupCmd, runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadContext() (*models.Context, error) {
	config, err := cli.LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	_context, err := models.NewContext(config)
	if err != nil {
		return nil, err
	}
	_context.Logger.Infof("Loaded config %s:\n%s", config.ConfigName, config.ToJSON())
	return _context, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	_context, err := loadContext()
	if err != nil {
		return err
	}
	defer _context.Close()

	pidFile := _context.Config.PidFile
	if pidFile != "" {
		if util.IsRunningInOtherProcess(pidFile) {
			return fmt.Errorf("another import_crawler is running with pid %d (pid file %s)",
				util.ReadPidFile(pidFile), pidFile)
		}
		if err := util.WritePidFile(pidFile); err != nil {
			return fmt.Errorf("cannot write pid file %s: %w", pidFile, err)
		}
		defer util.DeletePidFile(pidFile)
	}

	fullImporter := workers.NewFullImporter(_context)
	svc := &web.ImportService{
		Importer:    fullImporter,
		History:     fullImporter.History,
		HistorySize: _context.Config.RunHistorySize,
		Logger:      _context.Logger,
		RunTimeout:  _context.Config.HTTPTimeout,
	}
	if _context.Cleaner != nil {
		svc.Cleaner = _context.Cleaner
	}

	ctx, stop := signalContext()
	defer stop()
	return svc.Serve(ctx, _context.Config.HTTPAddr, 20*time.Second)
}

func runOnce(cmd *cobra.Command, args []string) error {
	_context, err := loadContext()
	if err != nil {
		return err
	}
	defer _context.Close()

	ctx, stop := signalContext()
	defer stop()
	summary, err := workers.NewFullImporter(_context).RunFullImport(ctx)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if !confirmCleanup {
		return fmt.Errorf("refusing to empty the catalog without --yes")
	}
	_context, err := loadContext()
	if err != nil {
		return err
	}
	defer _context.Close()
	if _context.Cleaner == nil {
		return common.ErrCleanupDisabled
	}
	ctx, stop := signalContext()
	defer stop()
	result, err := _context.Cleaner.Cleanup(ctx)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runListRuns(cmd *cobra.Command, args []string) error {
	_context, err := loadContext()
	if err != nil {
		return err
	}
	defer _context.Close()
	if _context.RedisClient == nil {
		return fmt.Errorf("no run history: REDIS_URL is not set")
	}
	summaries, err := _context.RedisClient.ImportRunList(runsLimit)
	if err != nil {
		return err
	}
	return printJSON(summaries)
}

func printJSON(data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonData))
	return nil
}
