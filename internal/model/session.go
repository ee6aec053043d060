package model

const (
	// ViewTypeAdmin identifies users operating the admin console.
	ViewTypeAdmin = "ADMIN"
	// ViewTypeClient identifies store-bound client users.
	ViewTypeClient = "CLIENT"

	// OnboardingStatusDone marks a store whose onboarding procedure has finished.
	OnboardingStatusDone = "DONE"
	// OnboardingStatusInProgress marks a store still walking through onboarding.
	OnboardingStatusInProgress = "IN_PROGRESS"
)

// User is the identity record returned by the upstream profile endpoint.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Status        string `json:"status"`
	DateJoined    string `json:"date_joined,omitempty"`
	LastActive    string `json:"last_active,omitempty"`
	TermsAccepted bool   `json:"terms_accepted"`
	UserGroup     string `json:"user_group,omitempty"`
}

// ViewToggles carries the per-role feature switches attached to a view.
type ViewToggles struct {
	ID       int64           `json:"id"`
	RoleID   int64           `json:"role_id"`
	ViewType string          `json:"view_type"`
	Switches map[string]bool `json:"switches,omitempty"`
}

// View is the resolved role descriptor for the logged-in user.
type View struct {
	Type        string      `json:"type"`
	Accesses    []Access    `json:"accesses,omitempty"`
	ViewToggles ViewToggles `json:"viewToggles"`
}

// Access grants a user a role on a store. For client views the first
// access identifies the active store.
type Access struct {
	StoreID string `json:"store_id"`
	UserID  int64  `json:"user_id"`
	RoleID  int64  `json:"role_id"`
}

// OnboardingProcedure reports how far a store has progressed through onboarding.
type OnboardingProcedure struct {
	OnboardingStatus string `json:"onboarding_status"`
}

// StoreRecord is the store entity nested inside a store-info response.
type StoreRecord struct {
	ID                  int64               `json:"id"`
	OnboardingProcedure OnboardingProcedure `json:"onboarding_procedure"`
}

// StoreOwner identifies the owning user of a store.
type StoreOwner struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// StoreInfo is the onboarding/status snapshot for the active store.
type StoreInfo struct {
	NumberOfMembers int         `json:"number_of_members"`
	Owner           StoreOwner  `json:"owner"`
	Store           StoreRecord `json:"store"`
}

// OnboardingDone reports whether the store finished its onboarding procedure.
func (storeInfo *StoreInfo) OnboardingDone() bool {
	if storeInfo == nil {
		return false
	}
	return storeInfo.Store.OnboardingProcedure.OnboardingStatus == OnboardingStatusDone
}

// Tokens bundles the opaque bearer credentials issued at login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ClientToken  string `json:"clientToken"`
}

// Complete reports whether both the access and refresh tokens are present.
func (tokens Tokens) Complete() bool {
	return tokens.AccessToken != "" && tokens.RefreshToken != ""
}

// RoutePermissions is the resolved navigation surface for a session.
type RoutePermissions struct {
	AllowedRoutes []string `json:"allowedRoutes"`
	DefaultRoute  string   `json:"defaultRoute"`
}

// Allows reports whether the given path is on the allowed list.
func (permissions RoutePermissions) Allows(path string) bool {
	for _, allowedRoute := range permissions.AllowedRoutes {
		if allowedRoute == path {
			return true
		}
	}
	return false
}
