package authflow

import (
	"fmt"

	"github.com/opensendlabs/dashboard_svc/internal/model"
)

const (
	// RouteLogin is the only route reachable without credentials.
	RouteLogin = "/login"
	// RouteAdmin is the admin console landing page.
	RouteAdmin = "/admin"
	// RouteDashboard is the widget dashboard.
	RouteDashboard = "/dashboard"
	// RouteOnboarding is the client onboarding flow.
	RouteOnboarding = "/onboarding"

	onboardingDefaultRouteFormat = RouteOnboarding + "?storeId=%d"
)

// ResolvePermissions computes the navigation surface for a view and an
// optional store snapshot. It is a pure function: identical inputs always
// yield identical outputs and nothing is mutated.
//
// Admins may reach the admin console and the dashboard. Clients are gated on
// their store's onboarding status; a client without a store snapshot falls
// back to the dashboard. Everything else resolves to the login page.
func ResolvePermissions(view *model.View, storeInfo *model.StoreInfo) model.RoutePermissions {
	if view == nil {
		return loginOnlyPermissions()
	}

	switch view.Type {
	case model.ViewTypeAdmin:
		return model.RoutePermissions{
			AllowedRoutes: []string{RouteAdmin, RouteDashboard},
			DefaultRoute:  RouteAdmin,
		}
	case model.ViewTypeClient:
		if storeInfo != nil && !storeInfo.OnboardingDone() {
			return model.RoutePermissions{
				AllowedRoutes: []string{RouteOnboarding},
				DefaultRoute:  fmt.Sprintf(onboardingDefaultRouteFormat, storeInfo.Store.ID),
			}
		}
		return model.RoutePermissions{
			AllowedRoutes: []string{RouteDashboard},
			DefaultRoute:  RouteDashboard,
		}
	default:
		return loginOnlyPermissions()
	}
}

func loginOnlyPermissions() model.RoutePermissions {
	return model.RoutePermissions{
		AllowedRoutes: []string{RouteLogin},
		DefaultRoute:  RouteLogin,
	}
}
