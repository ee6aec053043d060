package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/authflow"
	"github.com/opensendlabs/dashboard_svc/internal/kvstore"
	"github.com/opensendlabs/dashboard_svc/internal/session"
)

const (
	cookieSessionName      = "dashboard_session"
	cookieSessionKeyID     = "sid"
	cookieSessionMaxAge    = 30 * 24 * 60 * 60
	sessionStoragePrefix   = "session-"
	sessionStorageDivider  = ":"
	contextKeyBrowserState = "httpapi_browser_state"

	logEventSaveCookie    = "save_session_cookie"
	logEventPruneSessions = "prune_idle_sessions"
	logFieldPrunedCount   = "pruned"
)

// BrowserState bundles the server-held session and bootstrap of one browser.
type BrowserState struct {
	ID        string
	Session   *session.Session
	Bootstrap *authflow.Bootstrap

	// lastSeen is guarded by the manager's mutex.
	lastSeen time.Time
}

// SessionManagerConfig captures dependencies for building a SessionManager.
type SessionManagerConfig struct {
	CookieSecret     string
	Store            kvstore.Store
	Client           authflow.UpstreamClient
	BootstrapTimeout time.Duration
	Logger           *zap.Logger
}

// SessionManager binds browsers to their server-held sessions through a
// session-id cookie. Each browser gets its own token namespace in the
// key-value store, so two browsers never share credentials.
type SessionManager struct {
	cookieStore *sessions.CookieStore
	store       kvstore.Store
	client      authflow.UpstreamClient
	timeout     time.Duration
	logger      *zap.Logger

	mutex    sync.Mutex
	registry map[string]*BrowserState
}

// NewSessionManager constructs a SessionManager from its configuration.
func NewSessionManager(configuration SessionManagerConfig) *SessionManager {
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cookieStore := sessions.NewCookieStore([]byte(configuration.CookieSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieSessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{
		cookieStore: cookieStore,
		store:       configuration.Store,
		client:      configuration.Client,
		timeout:     configuration.BootstrapTimeout,
		logger:      logger,
		registry:    make(map[string]*BrowserState),
	}
}

// Attach resolves the browser state for the request, creating a session id
// cookie and a fresh server-held session on first contact. The state is
// cached on the gin context for the rest of the request.
func (manager *SessionManager) Attach(requestContext *gin.Context) *BrowserState {
	if cached, exists := requestContext.Get(contextKeyBrowserState); exists {
		if state, ok := cached.(*BrowserState); ok {
			return state
		}
	}

	cookieSession, cookieErr := manager.cookieStore.Get(requestContext.Request, cookieSessionName)
	if cookieErr != nil {
		// A malformed or re-keyed cookie falls back to a fresh session.
		cookieSession, _ = manager.cookieStore.New(requestContext.Request, cookieSessionName)
	}

	browserID, _ := cookieSession.Values[cookieSessionKeyID].(string)
	if browserID == "" {
		browserID = kvstore.NewID()
		cookieSession.Values[cookieSessionKeyID] = browserID
		if saveErr := cookieSession.Save(requestContext.Request, requestContext.Writer); saveErr != nil {
			manager.logger.Warn(logEventSaveCookie, zap.Error(saveErr))
		}
	}

	state := manager.stateFor(browserID)
	requestContext.Set(contextKeyBrowserState, state)
	return state
}

func (manager *SessionManager) stateFor(browserID string) *BrowserState {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if state, present := manager.registry[browserID]; present {
		state.lastSeen = time.Now()
		return state
	}

	namespacedStore := kvstore.NewNamespacedStore(manager.store, sessionStoragePrefix+browserID+sessionStorageDivider)
	browserSession := session.New(namespacedStore, manager.logger)
	state := &BrowserState{
		ID:        browserID,
		Session:   browserSession,
		Bootstrap: authflow.NewBootstrap(browserSession, manager.client, manager.timeout, manager.logger),
		lastSeen:  time.Now(),
	}
	manager.registry[browserID] = state
	return state
}

// PruneIdle drops registry entries that have not been attached for maxIdle.
// Only the in-memory cache is released; persisted tokens stay in the store,
// so a returning browser rebuilds its session from them on the next request.
func (manager *SessionManager) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	pruned := 0
	for browserID, state := range manager.registry {
		if state.lastSeen.Before(cutoff) {
			delete(manager.registry, browserID)
			pruned++
		}
	}

	if pruned > 0 {
		manager.logger.Info(logEventPruneSessions, zap.Int(logFieldPrunedCount, pruned))
	}
	return pruned
}
