package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opensendlabs/dashboard_svc/internal/apiclient"
	"github.com/opensendlabs/dashboard_svc/internal/dashboard"
	"github.com/opensendlabs/dashboard_svc/internal/httpapi"
	"github.com/opensendlabs/dashboard_svc/internal/kvstore"
)

const (
	testDatabaseDSN    = "/tmp/dashboard-test.sqlite"
	testUpstreamAPIURL = "https://upstream.example.com"
	testCookieSecret   = "0123456789abcdef0123456789abcdef"
)

func TestCommandDefinesConfigurationFlags(t *testing.T) {
	application := NewServerApplication()
	command, commandErr := application.Command()
	require.NoError(t, commandErr)

	commandFlags := command.Flags()
	for _, flagName := range []string{
		flagNameApplicationAddress,
		flagNameDatabaseDSN,
		flagNameUpstreamAPIURL,
		flagNameCookieSecret,
		flagNameBootstrapTimeout,
	} {
		require.NotNil(t, commandFlags.Lookup(flagName), "flag %s not defined", flagName)
	}

	require.Equal(t, defaultApplicationAddress, commandFlags.Lookup(flagNameApplicationAddress).DefValue)
}

func TestEnvironmentVariablesPopulateConfiguration(t *testing.T) {
	t.Setenv(environmentKeyDatabaseDSN, testDatabaseDSN)
	t.Setenv(environmentKeyUpstreamAPIURL, testUpstreamAPIURL)
	t.Setenv(environmentKeyCookieSecret, testCookieSecret)
	t.Setenv(environmentKeyBootstrapTimeout, "3s")

	application := NewServerApplication()
	command, commandErr := application.Command()
	require.NoError(t, commandErr)

	require.Equal(t, testDatabaseDSN, command.Flags().Lookup(flagNameDatabaseDSN).Value.String())
	require.Equal(t, testUpstreamAPIURL, application.configurationLoader.GetString(environmentKeyUpstreamAPIURL))
	require.Equal(t, 3*time.Second, application.configurationLoader.GetDuration(environmentKeyBootstrapTimeout))
}

func TestEnsureRequiredConfigurationNamesEveryMissingParameter(t *testing.T) {
	application := NewServerApplication()

	validationErr := application.ensureRequiredConfiguration(ServerConfig{})
	require.Error(t, validationErr)
	require.Contains(t, validationErr.Error(), flagNameDatabaseDSN)
	require.Contains(t, validationErr.Error(), flagNameUpstreamAPIURL)
	require.Contains(t, validationErr.Error(), flagNameCookieSecret)

	require.NoError(t, application.ensureRequiredConfiguration(ServerConfig{
		DatabaseDSN:    testDatabaseDSN,
		UpstreamAPIURL: testUpstreamAPIURL,
		CookieSecret:   testCookieSecret,
	}))
}

func TestRunCommandRejectsPositionalArguments(t *testing.T) {
	application := NewServerApplication()
	command, commandErr := application.Command()
	require.NoError(t, commandErr)

	runErr := application.runCommand(command, []string{"extra"})
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), unexpectedArgumentsMessage)
}

func TestBuildRouterServesPagesAndAPI(t *testing.T) {
	store := kvstore.NewMemoryStore()
	upstreamClient, clientErr := apiclient.NewClient(apiclient.Config{BaseURL: testUpstreamAPIURL})
	require.NoError(t, clientErr)

	sessionManager := httpapi.NewSessionManager(httpapi.SessionManagerConfig{
		CookieSecret:     testCookieSecret,
		Store:            store,
		Client:           upstreamClient,
		BootstrapTimeout: time.Second,
	})
	router := buildRouter(routerDependencies{
		sessionManager: sessionManager,
		loginClient:    upstreamClient,
		widgetGrid:     dashboard.NewGrid(store, nil),
	})

	loginRecorder := httptest.NewRecorder()
	router.ServeHTTP(loginRecorder, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, loginRecorder.Code)
	require.Contains(t, loginRecorder.Header().Get("Content-Type"), "text/html")

	widgetsRecorder := httptest.NewRecorder()
	router.ServeHTTP(widgetsRecorder, httptest.NewRequest(http.MethodGet, "/api/widgets", nil))
	require.Equal(t, http.StatusOK, widgetsRecorder.Code)

	rootRecorder := httptest.NewRecorder()
	router.ServeHTTP(rootRecorder, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusFound, rootRecorder.Code)
}
