package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opensendlabs/dashboard_svc/internal/apiclient"
	"github.com/opensendlabs/dashboard_svc/internal/authflow"
	"github.com/opensendlabs/dashboard_svc/internal/dashboard"
	"github.com/opensendlabs/dashboard_svc/internal/httpapi"
	"github.com/opensendlabs/dashboard_svc/internal/kvstore"
	"github.com/opensendlabs/dashboard_svc/internal/task"
)

const (
	commandUseName          = "server"
	commandShortDescription = "Run the dashboard server"
	commandLongDescription  = "Launch the dashboard HTTP server with its auth bootstrap and widget grid"

	missingConfigurationMessage   = "missing required configuration"
	loggerCreationErrorMessage    = "logger"
	unexpectedArgumentsMessage    = "unexpected command arguments"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"

	logEventListening         = "listening"
	logFieldAddress           = "addr"
	loggerContextOpenDatabase = "open_db"
	loggerContextAutoMigrate  = "migrate"
	loggerContextAPIClient    = "api_client"
	loggerContextServer       = "server"

	flagNameApplicationAddress = "app-addr"
	flagNameDatabaseDSN        = "db-dsn"
	flagNameUpstreamAPIURL     = "upstream-api-url"
	flagNameCookieSecret       = "cookie-secret"
	flagNameBootstrapTimeout   = "bootstrap-timeout"

	flagUsageApplicationAddress = "address for the HTTP server to listen on"
	flagUsageDatabaseDSN        = "SQLite data source name for the key-value store"
	flagUsageUpstreamAPIURL     = "base URL of the upstream dashboard backend"
	flagUsageCookieSecret       = "secret used to sign browser session cookies"
	flagUsageBootstrapTimeout   = "bounded wait for auth bootstrap fetches"

	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyDatabaseDSN        = "DB_DSN"
	environmentKeyUpstreamAPIURL     = "UPSTREAM_API_URL"
	environmentKeyCookieSecret       = "COOKIE_SECRET"
	environmentKeyBootstrapTimeout   = "BOOTSTRAP_TIMEOUT"

	defaultApplicationAddress = ":8080"
	readHeaderTimeoutSeconds  = 5

	sessionJanitorName  = "session-janitor"
	sessionPruneEvery   = time.Hour
	sessionIdleLifetime = 24 * time.Hour
)

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress string
	DatabaseDSN        string
	UpstreamAPIURL     string
	CookieSecret       string
	BootstrapTimeout   time.Duration
}

// DatabaseOpener opens a database connection using the provided data source name.
type DatabaseOpener func(string) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener: func(dataSourceName string) (*gorm.DB, error) {
			return kvstore.OpenDatabase(kvstore.Config{
				DriverName:     kvstore.DriverNameSQLite,
				DataSourceName: dataSourceName,
			})
		},
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDSN, "")
	application.configurationLoader.SetDefault(environmentKeyUpstreamAPIURL, "")
	application.configurationLoader.SetDefault(environmentKeyCookieSecret, "")
	application.configurationLoader.SetDefault(environmentKeyBootstrapTimeout, authflow.DefaultBootstrapTimeout.String())
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameDatabaseDSN, "", flagUsageDatabaseDSN)
	commandFlags.String(flagNameUpstreamAPIURL, "", flagUsageUpstreamAPIURL)
	commandFlags.String(flagNameCookieSecret, "", flagUsageCookieSecret)
	commandFlags.Duration(flagNameBootstrapTimeout, authflow.DefaultBootstrapTimeout, flagUsageBootstrapTimeout)

	flagBindings := map[string]string{
		environmentKeyApplicationAddress: flagNameApplicationAddress,
		environmentKeyDatabaseDSN:        flagNameDatabaseDSN,
		environmentKeyUpstreamAPIURL:     flagNameUpstreamAPIURL,
		environmentKeyCookieSecret:       flagNameCookieSecret,
		environmentKeyBootstrapTimeout:   flagNameBootstrapTimeout,
	}
	for environmentKey, flagName := range flagBindings {
		if bindErr := application.bindFlag(commandFlags, environmentKey, flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, environmentKey, flagName); environmentErr != nil {
			return environmentErr
		}
	}

	if markErr := command.MarkFlagRequired(flagNameDatabaseDSN); markErr != nil {
		return markErr
	}
	if markErr := command.MarkFlagRequired(flagNameUpstreamAPIURL); markErr != nil {
		return markErr
	}
	if markErr := command.MarkFlagRequired(flagNameCookieSecret); markErr != nil {
		return markErr
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := ServerConfig{
		ApplicationAddress: application.configurationLoader.GetString(environmentKeyApplicationAddress),
		DatabaseDSN:        strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDSN)),
		UpstreamAPIURL:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyUpstreamAPIURL)),
		CookieSecret:       strings.TrimSpace(application.configurationLoader.GetString(environmentKeyCookieSecret)),
		BootstrapTimeout:   application.configurationLoader.GetDuration(environmentKeyBootstrapTimeout),
	}

	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(serverConfig.DatabaseDSN)
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := kvstore.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	keyValueStore := kvstore.NewDatabaseStore(database)

	upstreamClient, clientErr := apiclient.NewClient(apiclient.Config{
		BaseURL: serverConfig.UpstreamAPIURL,
		Logger:  logger,
	})
	if clientErr != nil {
		logger.Fatal(loggerContextAPIClient, zap.Error(clientErr))
	}

	sessionManager := httpapi.NewSessionManager(httpapi.SessionManagerConfig{
		CookieSecret:     serverConfig.CookieSecret,
		Store:            keyValueStore,
		Client:           upstreamClient,
		BootstrapTimeout: serverConfig.BootstrapTimeout,
		Logger:           logger,
	})
	widgetGrid := dashboard.NewGrid(keyValueStore, logger)

	sessionJanitor := task.NewScheduler(sessionJanitorName, sessionPruneEvery, func(context.Context) {
		sessionManager.PruneIdle(sessionIdleLifetime)
	}, logger)
	sessionJanitor.Start(context.Background())
	defer sessionJanitor.Stop()

	router := buildRouter(routerDependencies{
		logger:         logger,
		sessionManager: sessionManager,
		loginClient:    upstreamClient,
		widgetGrid:     widgetGrid,
	})

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.DatabaseDSN == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDSN)
	}
	if configuration.UpstreamAPIURL == "" {
		missingParameters = append(missingParameters, flagNameUpstreamAPIURL)
	}
	if configuration.CookieSecret == "" {
		missingParameters = append(missingParameters, flagNameCookieSecret)
	}

	if len(missingParameters) > 0 {
		return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
	}

	return nil
}

func main() {
	application := NewServerApplication()
	command, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintln(os.Stderr, commandErr)
		os.Exit(1)
	}

	if executeErr := command.Execute(); executeErr != nil {
		fmt.Fprintln(os.Stderr, executeErr)
		os.Exit(1)
	}
}
