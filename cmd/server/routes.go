package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/authflow"
	"github.com/opensendlabs/dashboard_svc/internal/dashboard"
	"github.com/opensendlabs/dashboard_svc/internal/httpapi"
)

const (
	apiRoutePrefix     = "/api"
	apiRouteLogin      = "/auth/login"
	apiRouteLogout     = "/auth/logout"
	apiRouteSession    = "/session"
	apiRouteWidgets    = "/widgets"
	apiRouteWidgetByID = "/widgets/:id"
	apiRouteLayouts    = "/layouts"

	corsHeaderContentType = "Content-Type"
	httpMethodGet         = "GET"
	httpMethodPost        = "POST"
	httpMethodPut         = "PUT"
	httpMethodDelete      = "DELETE"
	httpMethodOptions     = "OPTIONS"
)

var (
	corsAllowedMethods = []string{httpMethodGet, httpMethodPost, httpMethodPut, httpMethodDelete, httpMethodOptions}
	corsAllowedHeaders = []string{corsHeaderContentType}
)

type routerDependencies struct {
	logger         *zap.Logger
	sessionManager *httpapi.SessionManager
	loginClient    httpapi.LoginClient
	widgetGrid     *dashboard.Grid
}

func buildRouter(dependencies routerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(dependencies.logger))

	registerPageRoutes(router, dependencies)
	registerAPIRoutes(router, dependencies)

	return router
}

func registerPageRoutes(router *gin.Engine, dependencies routerDependencies) {
	pageHandlers := httpapi.NewPageHandlers()
	guard := httpapi.NavigationGuard(dependencies.sessionManager, dependencies.logger)

	router.GET("/", guard, func(requestContext *gin.Context) {
		// The guard redirects everyone with a session elsewhere; anyone left
		// here is unauthenticated mid-transition.
		requestContext.Redirect(http.StatusFound, authflow.RouteLogin)
	})
	router.GET(authflow.RouteLogin, guard, pageHandlers.RenderLogin)
	router.GET(authflow.RouteAdmin, guard, pageHandlers.RenderAdmin)
	router.GET(authflow.RouteDashboard, guard, pageHandlers.RenderDashboard)
	router.GET(authflow.RouteOnboarding, guard, pageHandlers.RenderOnboarding)
}

func registerAPIRoutes(router *gin.Engine, dependencies routerDependencies) {
	authHandlers := httpapi.NewAuthHandlers(dependencies.sessionManager, dependencies.loginClient, dependencies.logger)
	widgetHandlers := httpapi.NewWidgetHandlers(dependencies.sessionManager, dependencies.widgetGrid, dependencies.logger)

	apiGroup := router.Group(apiRoutePrefix)
	apiGroup.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsAllowedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	apiGroup.POST(apiRouteLogin, authHandlers.Login)
	apiGroup.POST(apiRouteLogout, authHandlers.Logout)
	apiGroup.GET(apiRouteSession, authHandlers.CurrentSession)

	apiGroup.GET(apiRouteWidgets, widgetHandlers.ListWidgets)

	adminGroup := apiGroup.Group("")
	adminGroup.Use(widgetHandlers.RequireAdmin())
	adminGroup.POST(apiRouteWidgets, widgetHandlers.CreateWidget)
	adminGroup.PUT(apiRouteWidgetByID, widgetHandlers.UpdateWidget)
	adminGroup.DELETE(apiRouteWidgetByID, widgetHandlers.RemoveWidget)
	adminGroup.PUT(apiRouteLayouts, widgetHandlers.ReplaceLayouts)
}
