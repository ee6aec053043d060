package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"

	loginPageHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Sign in</title></head>
<body data-page="login">
<main><h1>Sign in</h1><form id="login-form"><input name="email" type="email"><input name="password" type="password"><button type="submit">Log in</button></form></main>
</body>
</html>`

	adminPageHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin console</title></head>
<body data-page="admin">
<main><h1>Admin console</h1></main>
</body>
</html>`

	dashboardPageHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Dashboard</title></head>
<body data-page="dashboard">
<main><h1>Dashboard</h1><div id="widget-grid"></div></main>
</body>
</html>`

	onboardingPageHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Onboarding</title></head>
<body data-page="onboarding">
<main><h1>Store onboarding</h1></main>
</body>
</html>`
)

// PageHandlers renders the minimal HTML shells behind the navigation guard.
// Styling and interactive rendering live in the frontend bundle, not here.
type PageHandlers struct{}

// NewPageHandlers constructs PageHandlers.
func NewPageHandlers() *PageHandlers {
	return &PageHandlers{}
}

// RenderLogin serves the login page shell.
func (handlers *PageHandlers) RenderLogin(requestContext *gin.Context) {
	requestContext.Data(http.StatusOK, contentTypeHTML, []byte(loginPageHTML))
}

// RenderAdmin serves the admin console shell.
func (handlers *PageHandlers) RenderAdmin(requestContext *gin.Context) {
	requestContext.Data(http.StatusOK, contentTypeHTML, []byte(adminPageHTML))
}

// RenderDashboard serves the dashboard shell.
func (handlers *PageHandlers) RenderDashboard(requestContext *gin.Context) {
	requestContext.Data(http.StatusOK, contentTypeHTML, []byte(dashboardPageHTML))
}

// RenderOnboarding serves the onboarding shell.
func (handlers *PageHandlers) RenderOnboarding(requestContext *gin.Context) {
	requestContext.Data(http.StatusOK, contentTypeHTML, []byte(onboardingPageHTML))
}
