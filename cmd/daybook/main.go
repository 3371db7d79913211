package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daybook-labs/daybook/internal/auth"
	"github.com/daybook-labs/daybook/internal/config"
	"github.com/daybook-labs/daybook/internal/journal"
	"github.com/daybook-labs/daybook/internal/kv"
	"github.com/daybook-labs/daybook/internal/logging"
	"github.com/daybook-labs/daybook/internal/mirror"
	"github.com/daybook-labs/daybook/internal/projects"
	"github.com/daybook-labs/daybook/internal/server"
	"github.com/daybook-labs/daybook/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "daybook",
		Short: "Daybook journaling and project-tracking service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	var exportPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a full data snapshot to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(exportPath)
		},
	}
	exportCmd.Flags().StringVar(&exportPath, "out", "", "Snapshot output path (defaults to daybook-export-<date>.json)")

	var importPath string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load a data snapshot from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(importPath)
		},
	}
	importCmd.Flags().StringVar(&importPath, "in", "", "Snapshot input path")
	if err := importCmd.MarkFlagRequired("in"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd, exportCmd, importCmd)
	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int64("storage-quota-bytes", defaults.GetInt64("storage.quota_bytes"), "Storage capacity ceiling in bytes (0 disables)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Int("session-ttl-minutes", defaults.GetInt("session.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("mirror-base-url", defaults.GetString("mirror.base_url"), "Cloud mirror base URL (empty disables mirroring)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "storage.quota_bytes", "storage-quota-bytes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "mirror.base_url", "mirror-base-url")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// openStore builds the store stack shared by every subcommand.
func openStore(appConfig config.AppConfig, logger *zap.Logger, dataMirror store.Mirror) (*store.Store, *kv.SQLiteAdapter, error) {
	adapter, err := kv.OpenSQLite(kv.SQLiteConfig{
		Path:       appConfig.DatabasePath,
		QuotaBytes: appConfig.QuotaBytes,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	dataStore, err := store.NewStore(store.StoreConfig{
		Adapter: adapter,
		Clock:   time.Now,
		Logger:  logger,
		Mirror:  dataMirror,
	})
	if err != nil {
		adapter.Close() //nolint:errcheck
		return nil, nil, err
	}
	return dataStore, adapter, nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := appConfig.ValidateServe(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var dataMirror store.Mirror
	var mirrorControl server.MirrorControl
	if appConfig.MirrorBaseURL != "" {
		httpMirror, err := mirror.NewHTTPMirror(mirror.HTTPMirrorConfig{
			BaseURL:      appConfig.MirrorBaseURL,
			SessionToken: appConfig.MirrorToken,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		dataMirror = httpMirror
		mirrorControl = httpMirror
	}

	dataStore, adapter, err := openStore(appConfig, logger, dataMirror)
	if err != nil {
		return err
	}
	defer adapter.Close() //nolint:errcheck

	if err := dataStore.MigrateLegacy(); err != nil {
		return err
	}

	sessions, err := auth.NewSessionManager(auth.SessionManagerConfig{
		SigningSecret: []byte(appConfig.SessionSecret),
		SessionTTL:    appConfig.SessionTTL,
	})
	if err != nil {
		return err
	}

	journalService, err := journal.NewService(journal.ServiceConfig{
		Store:  dataStore,
		Clock:  time.Now,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	projectService, err := projects.NewService(projects.ServiceConfig{
		Store:      dataStore,
		Clock:      time.Now,
		IDProvider: projects.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions:       sessions,
		Passphrase:     appConfig.SessionPassphrase,
		JournalService: journalService,
		ProjectService: projectService,
		Store:          dataStore,
		Mirror:         mirrorControl,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runExport(outPath string) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	dataStore, adapter, err := openStore(appConfig, logger, nil)
	if err != nil {
		return err
	}
	defer adapter.Close() //nolint:errcheck

	snapshot, err := dataStore.ExportAll()
	if err != nil {
		return err
	}
	payload, err := store.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = fmt.Sprintf("daybook-export-%s.json", dataStore.Today())
	}
	if err := os.WriteFile(outPath, payload, 0o600); err != nil {
		return err
	}
	logger.Info("snapshot exported", zap.String("path", outPath))
	return nil
}

func runImport(inPath string) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	payload, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	snapshot, err := store.DecodeSnapshot(payload)
	if err != nil {
		return err
	}

	dataStore, adapter, err := openStore(appConfig, logger, nil)
	if err != nil {
		return err
	}
	defer adapter.Close() //nolint:errcheck

	if err := dataStore.ImportAll(snapshot); err != nil {
		return err
	}
	logger.Info("snapshot imported",
		zap.Bool("entries_replaced", snapshot.Entries != nil),
		zap.Bool("projects_replaced", snapshot.Projects != nil))
	return nil
}
