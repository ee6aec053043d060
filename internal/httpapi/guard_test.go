package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireGuardRedirect(t *testing.T, browser *testBrowser, path string, target string) {
	t.Helper()

	recorder := browser.request(http.MethodGet, path, nil)
	require.Equal(t, http.StatusFound, recorder.Code)
	require.Equal(t, target, recorder.Header().Get("Location"))
}

func TestGuardRedirectsAnonymousNavigationToLogin(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)

	for _, protectedPath := range []string{"/dashboard", "/admin", "/onboarding"} {
		requireGuardRedirect(t, browser, protectedPath, "/login")
	}

	recorder := browser.request(http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestGuardEnforcesAdminPermissions(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)
	loginAs(t, browser, environment, adminLoginResult())

	recorder := browser.request(http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = browser.request(http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	// A signed-in admin never sees the login page or onboarding.
	requireGuardRedirect(t, browser, "/login", "/admin")
	requireGuardRedirect(t, browser, "/onboarding", "/admin")
}

func TestGuardConfinesClientToItsDefaultRoute(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)
	loginAs(t, browser, environment, clientLoginResult())

	recorder := browser.request(http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	requireGuardRedirect(t, browser, "/admin", "/dashboard")
	requireGuardRedirect(t, browser, "/login", "/dashboard")
}
