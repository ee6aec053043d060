package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/kvstore"
	"github.com/opensendlabs/dashboard_svc/internal/model"
)

const (
	logEventLoadTokens    = "load_persisted_tokens"
	logEventPersistTokens = "persist_tokens"
	logEventClearTokens   = "clear_persisted_tokens"
	logFieldKey           = "key"
)

// Snapshot is a point-in-time copy of the session used by the auth
// bootstrap to derive its state without holding the session lock.
type Snapshot struct {
	Tokens           model.Tokens
	User             *model.User
	View             *model.View
	Accesses         []model.Access
	StoreInfo        *model.StoreInfo
	RoutePermissions *model.RoutePermissions
	Authenticated    bool
	Initialized      bool
}

// Session is the single source of truth for who is logged in and what they
// may see. It is explicitly constructed and injected; there is no package
// level instance.
type Session struct {
	mutex sync.RWMutex

	store  kvstore.Store
	logger *zap.Logger

	tokens           model.Tokens
	user             *model.User
	view             *model.View
	accesses         []model.Access
	storeInfo        *model.StoreInfo
	routePermissions *model.RoutePermissions
	initialized      bool
	lastError        error
}

// New creates a session seeded from persisted tokens. When both the access
// and refresh tokens are present the session starts authenticated but not
// initialized; otherwise it starts unauthenticated and initialized. A failing
// store is tolerated: the session falls back to in-memory defaults and
// records the error.
func New(store kvstore.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	instance := &Session{
		store:       store,
		logger:      logger,
		initialized: true,
	}

	tokens, loadErr := loadTokens(store)
	if loadErr != nil {
		logger.Warn(logEventLoadTokens, zap.Error(loadErr))
		instance.lastError = loadErr
		return instance
	}

	if tokens.Complete() {
		instance.tokens = tokens
		instance.initialized = false
	}

	return instance
}

func loadTokens(store kvstore.Store) (model.Tokens, error) {
	var tokens model.Tokens

	accessToken, _, accessErr := store.Get(kvstore.KeyAccessToken)
	if accessErr != nil {
		return model.Tokens{}, accessErr
	}
	refreshToken, _, refreshErr := store.Get(kvstore.KeyRefreshToken)
	if refreshErr != nil {
		return model.Tokens{}, refreshErr
	}
	clientToken, _, clientErr := store.Get(kvstore.KeyClientToken)
	if clientErr != nil {
		return model.Tokens{}, clientErr
	}

	tokens.AccessToken = accessToken
	tokens.RefreshToken = refreshToken
	tokens.ClientToken = clientToken
	return tokens, nil
}

// SetCredentials installs the full login payload, persists the tokens and
// marks the session initialized. Cached route permissions are invalidated.
func (currentSession *Session) SetCredentials(user model.User, view model.View, accesses []model.Access, tokens model.Tokens) {
	currentSession.mutex.Lock()
	defer currentSession.mutex.Unlock()

	currentSession.user = &user
	currentSession.view = &view
	currentSession.accesses = accesses
	currentSession.tokens = tokens
	currentSession.initialized = true
	currentSession.routePermissions = nil
	currentSession.lastError = nil

	currentSession.persistTokensLocked()
}

// SetUserData refreshes identity data without touching tokens.
func (currentSession *Session) SetUserData(user model.User, view model.View, accesses []model.Access) {
	currentSession.mutex.Lock()
	defer currentSession.mutex.Unlock()

	currentSession.user = &user
	currentSession.view = &view
	currentSession.accesses = accesses
	currentSession.initialized = true
	currentSession.lastError = nil
}

// UpdateTokens replaces tokens without touching user data. Empty refresh or
// client tokens leave the previous values in place. Cached route permissions
// are invalidated because credentials changed.
func (currentSession *Session) UpdateTokens(tokens model.Tokens) {
	currentSession.mutex.Lock()
	defer currentSession.mutex.Unlock()

	currentSession.tokens.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		currentSession.tokens.RefreshToken = tokens.RefreshToken
	}
	if tokens.ClientToken != "" {
		currentSession.tokens.ClientToken = tokens.ClientToken
	}
	currentSession.routePermissions = nil
	currentSession.lastError = nil

	currentSession.persistTokensLocked()
}

// SetStoreInfo records the active store snapshot.
func (currentSession *Session) SetStoreInfo(storeInfo *model.StoreInfo) {
	currentSession.mutex.Lock()
	defer currentSession.mutex.Unlock()
	currentSession.storeInfo = storeInfo
}

// SetRoutePermissions caches resolved route permissions.
func (currentSession *Session) SetRoutePermissions(permissions model.RoutePermissions) {
	currentSession.mutex.Lock()
	defer currentSession.mutex.Unlock()
	currentSession.routePermissions = &permissions
}

// MarkInitialized records that profile data was fetched or definitively
// failed, preventing duplicate fetches.
func (currentSession *Session) MarkInitialized() {
	currentSession.mutex.Lock()
	defer currentSession.mutex.Unlock()
	currentSession.initialized = true
}

// Logout clears every session field, removes the persisted tokens and
// re-marks the session initialized.
func (currentSession *Session) Logout() {
	currentSession.mutex.Lock()
	defer currentSession.mutex.Unlock()

	currentSession.tokens = model.Tokens{}
	currentSession.user = nil
	currentSession.view = nil
	currentSession.accesses = nil
	currentSession.storeInfo = nil
	currentSession.routePermissions = nil
	currentSession.initialized = true
	currentSession.lastError = nil

	for _, key := range []string{kvstore.KeyAccessToken, kvstore.KeyClientToken, kvstore.KeyRefreshToken} {
		if deleteErr := currentSession.store.Delete(key); deleteErr != nil {
			currentSession.logger.Warn(logEventClearTokens, zap.String(logFieldKey, key), zap.Error(deleteErr))
			currentSession.lastError = deleteErr
		}
	}
}

// IsAuthenticated reports whether both bearer tokens are present.
func (currentSession *Session) IsAuthenticated() bool {
	currentSession.mutex.RLock()
	defer currentSession.mutex.RUnlock()
	return currentSession.tokens.Complete()
}

// IsInitialized reports whether profile data was fetched or definitively failed.
func (currentSession *Session) IsInitialized() bool {
	currentSession.mutex.RLock()
	defer currentSession.mutex.RUnlock()
	return currentSession.initialized
}

// Tokens returns a copy of the current bearer credentials.
func (currentSession *Session) Tokens() model.Tokens {
	currentSession.mutex.RLock()
	defer currentSession.mutex.RUnlock()
	return currentSession.tokens
}

// LastError exposes the most recent persistence failure for observability.
func (currentSession *Session) LastError() error {
	currentSession.mutex.RLock()
	defer currentSession.mutex.RUnlock()
	return currentSession.lastError
}

// Snapshot copies the session for lock-free state derivation.
func (currentSession *Session) Snapshot() Snapshot {
	currentSession.mutex.RLock()
	defer currentSession.mutex.RUnlock()

	snapshot := Snapshot{
		Tokens:        currentSession.tokens,
		Authenticated: currentSession.tokens.Complete(),
		Initialized:   currentSession.initialized,
	}
	if currentSession.user != nil {
		userCopy := *currentSession.user
		snapshot.User = &userCopy
	}
	if currentSession.view != nil {
		viewCopy := *currentSession.view
		snapshot.View = &viewCopy
	}
	if len(currentSession.accesses) > 0 {
		snapshot.Accesses = make([]model.Access, len(currentSession.accesses))
		copy(snapshot.Accesses, currentSession.accesses)
	}
	if currentSession.storeInfo != nil {
		storeInfoCopy := *currentSession.storeInfo
		snapshot.StoreInfo = &storeInfoCopy
	}
	if currentSession.routePermissions != nil {
		permissionsCopy := *currentSession.routePermissions
		snapshot.RoutePermissions = &permissionsCopy
	}
	return snapshot
}

func (currentSession *Session) persistTokensLocked() {
	entries := map[string]string{
		kvstore.KeyAccessToken:  currentSession.tokens.AccessToken,
		kvstore.KeyClientToken:  currentSession.tokens.ClientToken,
		kvstore.KeyRefreshToken: currentSession.tokens.RefreshToken,
	}
	for key, value := range entries {
		if setErr := currentSession.store.Set(key, value); setErr != nil {
			currentSession.logger.Warn(logEventPersistTokens, zap.String(logFieldKey, key), zap.Error(setErr))
			currentSession.lastError = setErr
		}
	}
}
