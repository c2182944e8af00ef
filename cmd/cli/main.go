package cli

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/config"
	"github.com/vpnda/ledgerlink/pkg/provider"
	"github.com/vpnda/ledgerlink/pkg/services"
	"github.com/vpnda/ledgerlink/pkg/webhook"
)

var (
	dbPath     string
	configPath string
	verbose    bool
	rootCmd    *cobra.Command
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "ledgerlink",
		Short: "Provider-feed ledger synchronization",
		Long:  `Pulls transaction and balance diffs from the financial-data provider and reconciles them into the local ledger.`,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "ledgerlink.db", "Path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging, including provider request dumps")

	rootCmd.AddCommand(newServeCmd(), newSyncCmd(), newAccountsCmd())

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	cobra.OnInitialize(func() {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	})
}

// openStore connects to the database and ensures the schema exists.
func openStore() (db.LedgerStore, error) {
	database, err := db.New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := database.Initialize(); err != nil {
		return nil, err
	}
	return database, nil
}

func newEngine(store db.LedgerStore) (*services.Engine, error) {
	if err := config.InitGlobalConfig(configPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load configuration, using defaults")
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	clientID, secret, err := config.GetProviderCredentials()
	if err != nil {
		return nil, err
	}

	var clientOpts []provider.ClientOption
	if verbose {
		clientOpts = append(clientOpts, provider.WithDebugLogging())
	}
	client := provider.NewHTTPClient(cfg.Provider.BaseURL, clientID, secret, clientOpts...)

	opts := []services.Option{}
	if cfg.Provider.PageTimeoutSeconds > 0 {
		opts = append(opts, services.WithPageTimeout(time.Duration(cfg.Provider.PageTimeoutSeconds)*time.Second))
	}
	return services.NewEngine(store, client, opts...), nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the provider webhook and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine, err := newEngine(store)
			if err != nil {
				return err
			}

			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}

			return webhook.NewServer(engine, store).ListenAndServe(cfg.ListenAddr)
		},
	}
}
