package httpapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/opensendlabs/dashboard_svc/internal/apiclient"
	"github.com/opensendlabs/dashboard_svc/internal/model"
)

func TestLoginInstallsSessionAndReturnsDefaultRoute(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)
	environment.loginClient.result = adminLoginResult()

	recorder := browser.request(http.MethodPost, "/api/auth/login", gin.H{
		"email":    testAdminEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	responseBody := decodeBody(t, recorder)
	require.Equal(t, "/admin", responseBody["redirect"])

	sessionBody := decodeBody(t, browser.request(http.MethodGet, "/api/session", nil))
	require.Equal(t, true, sessionBody["authenticated"])
	require.Equal(t, true, sessionBody["initialized"])
	require.Equal(t, model.ViewTypeAdmin, sessionBody["viewType"])
	require.Contains(t, sessionBody, "permissions")
}

func TestClientLoginWithoutFetchableStoreRedirectsToDashboard(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)
	environment.loginClient.result = clientLoginResult()

	recorder := browser.request(http.MethodPost, "/api/auth/login", gin.H{
		"email":    testClientEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "/dashboard", decodeBody(t, recorder)["redirect"])

	sessionBody := decodeBody(t, browser.request(http.MethodGet, "/api/session", nil))
	require.Equal(t, model.ViewTypeClient, sessionBody["viewType"])
}

func TestClientLoginIsGatedOnIncompleteOnboarding(t *testing.T) {
	environment := newTestEnvironment(t)
	environment.upstream.storeFunc = func(_ context.Context, _ model.Tokens, storeID string) (*model.StoreInfo, error) {
		require.Equal(t, "1042", storeID)
		return &model.StoreInfo{
			Store: model.StoreRecord{
				ID:                  1042,
				OnboardingProcedure: model.OnboardingProcedure{OnboardingStatus: model.OnboardingStatusInProgress},
			},
		}, nil
	}
	browser := environment.newBrowser(t)
	environment.loginClient.result = clientLoginResult()

	recorder := browser.request(http.MethodPost, "/api/auth/login", gin.H{
		"email":    testClientEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "/onboarding?storeId=1042", decodeBody(t, recorder)["redirect"])

	dashboardRecorder := browser.request(http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusFound, dashboardRecorder.Code)
	require.Equal(t, "/onboarding?storeId=1042", dashboardRecorder.Header().Get("Location"))

	onboardingRecorder := browser.request(http.MethodGet, "/onboarding", nil)
	require.Equal(t, http.StatusOK, onboardingRecorder.Code)
}

func TestClientLoginWithFinishedOnboardingLandsOnDashboard(t *testing.T) {
	environment := newTestEnvironment(t)
	environment.upstream.storeFunc = func(context.Context, model.Tokens, string) (*model.StoreInfo, error) {
		return &model.StoreInfo{
			Store: model.StoreRecord{
				ID:                  1042,
				OnboardingProcedure: model.OnboardingProcedure{OnboardingStatus: model.OnboardingStatusDone},
			},
		}, nil
	}
	browser := environment.newBrowser(t)
	environment.loginClient.result = clientLoginResult()

	recorder := browser.request(http.MethodPost, "/api/auth/login", gin.H{
		"email":    testClientEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "/dashboard", decodeBody(t, recorder)["redirect"])

	dashboardRecorder := browser.request(http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, dashboardRecorder.Code)
}

func TestLoginRejectsMalformedAndIncompleteRequests(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)

	recorder := browser.request(http.MethodPost, "/api/auth/login", gin.H{"email": "  ", "password": ""})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "missing_fields", decodeBody(t, recorder)["error"])

	request := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{broken"))
	request.Header.Set("Content-Type", "application/json")
	malformedRecorder := newRecorderFor(environment, request)
	require.Equal(t, http.StatusBadRequest, malformedRecorder.Code)
	require.Equal(t, "invalid_json", decodeBody(t, malformedRecorder)["error"])
}

func TestLoginMapsUpstreamErrorCodesToFields(t *testing.T) {
	testCases := []struct {
		name            string
		upstreamError   *apiclient.APIError
		expectedField   string
		expectedMessage string
	}{
		{
			name: "unknown email",
			upstreamError: &apiclient.APIError{
				Status:  http.StatusUnauthorized,
				Code:    apiclient.ErrorCodeEmailNotFound,
				Message: "ERR_AUTH_001 :: Email not found. Please check your email address.",
			},
			expectedField:   "email",
			expectedMessage: "Email not found. Please check your email address.",
		},
		{
			name: "wrong password",
			upstreamError: &apiclient.APIError{
				Status:  http.StatusUnauthorized,
				Code:    apiclient.ErrorCodeInvalidPassword,
				Message: "ERR_AUTH_002 :: Invalid password. Please try again.",
			},
			expectedField:   "password",
			expectedMessage: "Invalid password. Please try again.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			environment := newTestEnvironment(t)
			browser := environment.newBrowser(t)
			environment.loginClient.err = testCase.upstreamError

			recorder := browser.request(http.MethodPost, "/api/auth/login", gin.H{
				"email":    testClientEmail,
				"password": "wrong",
			})
			require.Equal(t, http.StatusUnauthorized, recorder.Code)

			responseBody := decodeBody(t, recorder)
			require.Equal(t, testCase.expectedField, responseBody["field"])
			require.Equal(t, testCase.expectedMessage, responseBody["error"])
			require.Equal(t, testCase.upstreamError.Code, responseBody["code"])
		})
	}
}

func TestLoginUpstreamOutageYieldsBadGateway(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)
	environment.loginClient.err = errors.New("connection refused")

	recorder := browser.request(http.MethodPost, "/api/auth/login", gin.H{
		"email":    testClientEmail,
		"password": testPassword,
	})
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.Equal(t, "login_failed", decodeBody(t, recorder)["error"])
}

func TestLogoutClearsTheSession(t *testing.T) {
	environment := newTestEnvironment(t)
	browser := environment.newBrowser(t)
	loginAs(t, browser, environment, adminLoginResult())

	recorder := browser.request(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "/login", decodeBody(t, recorder)["redirect"])

	sessionBody := decodeBody(t, browser.request(http.MethodGet, "/api/session", nil))
	require.Equal(t, false, sessionBody["authenticated"])
	require.NotContains(t, sessionBody, "viewType")
}
