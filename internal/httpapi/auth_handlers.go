package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/apiclient"
	"github.com/opensendlabs/dashboard_svc/internal/authflow"
)

const (
	jsonKeyError         = "error"
	jsonKeyField         = "field"
	jsonKeyCode          = "code"
	jsonKeyUser          = "user"
	jsonKeyView          = "view"
	jsonKeyRedirect      = "redirect"
	jsonKeyAuthenticated = "authenticated"
	jsonKeyInitialized   = "initialized"
	jsonKeyViewType      = "viewType"
	jsonKeyPermissions   = "permissions"

	fieldNameEmail    = "email"
	fieldNamePassword = "password"

	errorValueInvalidJSON   = "invalid_json"
	errorValueMissingFields = "missing_fields"
	errorValueLoginFailed   = "login_failed"

	fallbackLoginErrorMessage      = "Login failed"
	fallbackEmailNotFoundMessage   = "Email not found. Please check your email address."
	fallbackInvalidPasswordMessage = "Invalid password. Please try again."

	logEventLoginFailed            = "login_failed"
	logEventLoginSucceeded         = "login_succeeded"
	logEventLoginResolveIncomplete = "login_resolve_incomplete"
	logFieldViewType               = "view_type"
	logFieldUpstreamCode           = "upstream_code"
)

// LoginClient is the slice of the remote API the login handler consumes.
type LoginClient interface {
	Login(ctx context.Context, email string, password string) (*apiclient.LoginResult, error)
}

type loginRequestBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandlers serves login, logout and session introspection.
type AuthHandlers struct {
	manager *SessionManager
	client  LoginClient
	logger  *zap.Logger
}

// NewAuthHandlers constructs AuthHandlers.
func NewAuthHandlers(manager *SessionManager, client LoginClient, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{manager: manager, client: client, logger: logger}
}

// Login exchanges credentials with the upstream backend and installs the
// returned identity and tokens on the browser's session. Known upstream
// error codes map to field-level validation messages.
func (handlers *AuthHandlers) Login(requestContext *gin.Context) {
	var requestBody loginRequestBody
	if bindErr := requestContext.ShouldBindJSON(&requestBody); bindErr != nil {
		requestContext.AbortWithStatusJSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	email := strings.TrimSpace(requestBody.Email)
	if email == "" || requestBody.Password == "" {
		requestContext.AbortWithStatusJSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingFields})
		return
	}

	state := handlers.manager.Attach(requestContext)

	result, loginErr := handlers.client.Login(requestContext.Request.Context(), email, requestBody.Password)
	if loginErr != nil {
		handlers.renderLoginError(requestContext, loginErr)
		return
	}

	state.Session.SetCredentials(result.User, result.View, result.Accesses, result.Tokens)

	// The bootstrap owns permission resolution: for client views it fetches
	// store info before choosing the post-login destination, so the
	// onboarding gate applies to the login redirect as well.
	decision, resolveErr := state.Bootstrap.ResolveNavigation(requestContext.Request.Context(), authflow.RouteLogin)
	if resolveErr != nil {
		handlers.logger.Warn(logEventLoginResolveIncomplete, zap.Error(resolveErr))
	}
	redirectTarget := authflow.RouteLogin
	if decision.Action == authflow.DecisionRedirect && decision.Target != "" {
		redirectTarget = decision.Target
	}

	handlers.logger.Info(logEventLoginSucceeded, zap.String(logFieldViewType, result.View.Type))
	requestContext.JSON(http.StatusOK, gin.H{
		jsonKeyUser:     result.User,
		jsonKeyView:     result.View,
		jsonKeyRedirect: redirectTarget,
	})
}

func (handlers *AuthHandlers) renderLoginError(requestContext *gin.Context, loginErr error) {
	var apiErr *apiclient.APIError
	if !errors.As(loginErr, &apiErr) {
		handlers.logger.Warn(logEventLoginFailed, zap.Error(loginErr))
		requestContext.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			jsonKeyError: errorValueLoginFailed,
		})
		return
	}

	handlers.logger.Info(logEventLoginFailed, zap.String(logFieldUpstreamCode, apiErr.Code))

	message := apiErr.HumanMessage()
	field := ""
	switch apiErr.Code {
	case apiclient.ErrorCodeEmailNotFound:
		field = fieldNameEmail
		if message == "" {
			message = fallbackEmailNotFoundMessage
		}
	case apiclient.ErrorCodeInvalidPassword:
		field = fieldNamePassword
		if message == "" {
			message = fallbackInvalidPasswordMessage
		}
	default:
		if message == "" {
			message = fallbackLoginErrorMessage
		}
	}

	responseBody := gin.H{
		jsonKeyError: message,
		jsonKeyCode:  apiErr.Code,
	}
	if field != "" {
		responseBody[jsonKeyField] = field
	}
	requestContext.AbortWithStatusJSON(http.StatusUnauthorized, responseBody)
}

// Logout clears the browser's session and its persisted tokens.
func (handlers *AuthHandlers) Logout(requestContext *gin.Context) {
	state := handlers.manager.Attach(requestContext)
	state.Session.Logout()
	requestContext.JSON(http.StatusOK, gin.H{jsonKeyRedirect: authflow.RouteLogin})
}

// CurrentSession reports the browser's session state for client bootstrap.
func (handlers *AuthHandlers) CurrentSession(requestContext *gin.Context) {
	state := handlers.manager.Attach(requestContext)
	snapshot := state.Session.Snapshot()

	responseBody := gin.H{
		jsonKeyAuthenticated: snapshot.Authenticated,
		jsonKeyInitialized:   snapshot.Initialized,
	}
	if snapshot.View != nil {
		responseBody[jsonKeyViewType] = snapshot.View.Type
	}
	if snapshot.RoutePermissions != nil {
		responseBody[jsonKeyPermissions] = *snapshot.RoutePermissions
	}
	requestContext.JSON(http.StatusOK, responseBody)
}
