package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/authflow"
)

const (
	logEventGuardDecision = "guard_decision"
	logEventGuardTimeout  = "guard_timeout"
	logFieldRequestPath   = "path"
	logFieldRedirect      = "redirect"
)

// NavigationGuard runs the auth bootstrap for every page navigation and
// either lets the request through or issues the redirect the state machine
// decided on. A bootstrap timeout never hangs the request: the best-effort
// decision is applied and the timeout is logged.
func NavigationGuard(manager *SessionManager, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(requestContext *gin.Context) {
		state := manager.Attach(requestContext)
		requestPath := requestContext.Request.URL.Path

		decision, resolveErr := state.Bootstrap.ResolveNavigation(requestContext.Request.Context(), requestPath)
		if resolveErr != nil {
			if errors.Is(resolveErr, authflow.ErrBootstrapTimeout) {
				logger.Warn(logEventGuardTimeout, zap.String(logFieldRequestPath, requestPath))
			} else {
				logger.Warn(logEventGuardDecision, zap.String(logFieldRequestPath, requestPath), zap.Error(resolveErr))
			}
		}

		if decision.Action == authflow.DecisionRedirect {
			logger.Debug(logEventGuardDecision,
				zap.String(logFieldRequestPath, requestPath),
				zap.String(logFieldRedirect, decision.Target),
			)
			requestContext.Redirect(http.StatusFound, decision.Target)
			requestContext.Abort()
			return
		}

		requestContext.Next()
	}
}
