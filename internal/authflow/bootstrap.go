package authflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/apiclient"
	"github.com/opensendlabs/dashboard_svc/internal/model"
	"github.com/opensendlabs/dashboard_svc/internal/session"
)

const (
	// DefaultBootstrapTimeout bounds how long one navigation may wait on
	// upstream fetches before resolving with best-effort state.
	DefaultBootstrapTimeout = 10 * time.Second

	maxTransitionsPerNavigation = 8

	errorMessageBootstrapTimeout = "authflow: bootstrap timed out"
	errorMessageStaleResponse    = "authflow: stale upstream response"
	errorMessageTransitionLoop   = "authflow: transition loop exceeded"

	logEventProfileFetchFailed = "profile_fetch_failed"
	logEventStoreFetchFailed   = "store_fetch_failed"
	logEventForcedLogout       = "forced_logout"
	logEventStaleResponse      = "stale_response_discarded"
	logFieldState              = "state"
	logFieldPath               = "path"
	logFieldStoreID            = "store_id"
)

var (
	// ErrBootstrapTimeout reports that the bounded wait elapsed; the returned
	// decision still resolves navigation with best-effort state.
	ErrBootstrapTimeout = errors.New(errorMessageBootstrapTimeout)
	// ErrStaleResponse reports an upstream response that no longer matches the
	// session's credentials and was discarded.
	ErrStaleResponse = errors.New(errorMessageStaleResponse)
	// ErrTransitionLoop guards against a navigation that never settles.
	ErrTransitionLoop = errors.New(errorMessageTransitionLoop)
)

// DecisionAction tells the navigation layer what to do with a request.
type DecisionAction int

const (
	// DecisionAllow lets the requested path render.
	DecisionAllow DecisionAction = iota
	// DecisionRedirect sends the user to Decision.Target instead.
	DecisionRedirect
)

// Decision is the outcome of one navigation attempt.
type Decision struct {
	Action DecisionAction
	Target string
}

func allowNavigation() Decision {
	return Decision{Action: DecisionAllow}
}

func redirectTo(target string) Decision {
	return Decision{Action: DecisionRedirect, Target: target}
}

// UpstreamClient is the slice of the remote API the bootstrap consumes.
type UpstreamClient interface {
	GetUserProfile(ctx context.Context, tokens model.Tokens) (*apiclient.ProfileResult, error)
	GetStoreInfo(ctx context.Context, tokens model.Tokens, storeID string) (*model.StoreInfo, error)
}

type fetchFlight struct {
	done chan struct{}
	err  error
}

// Bootstrap decides, per navigation attempt, whether the user may view the
// requested path, fetching profile and store data at most once per cycle.
type Bootstrap struct {
	session *session.Session
	client  UpstreamClient
	timeout time.Duration
	logger  *zap.Logger

	flightMutex   chan struct{}
	profileFlight *fetchFlight
	storeFlight   *fetchFlight
}

// NewBootstrap builds a Bootstrap over an owned session and upstream client.
// A non-positive timeout falls back to DefaultBootstrapTimeout.
func NewBootstrap(currentSession *session.Session, client UpstreamClient, timeout time.Duration, logger *zap.Logger) *Bootstrap {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultBootstrapTimeout
	}
	flightMutex := make(chan struct{}, 1)
	flightMutex <- struct{}{}
	return &Bootstrap{
		session:     currentSession,
		client:      client,
		timeout:     timeout,
		logger:      logger,
		flightMutex: flightMutex,
	}
}

// ResolveNavigation evaluates the state machine for the requested path and
// returns an allow-or-redirect decision. Cached view and permission data
// short-circuit repeated fetches, so calling this on every navigation is
// cheap once the session settles. On timeout the decision is still usable and
// ErrBootstrapTimeout is returned alongside it.
func (bootstrap *Bootstrap) ResolveNavigation(ctx context.Context, path string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, bootstrap.timeout)
	defer cancel()

	onLoginPage := path == RouteLogin

	for transitions := 0; transitions < maxTransitionsPerNavigation; transitions++ {
		snapshot := bootstrap.session.Snapshot()

		switch StateOf(snapshot) {
		case StateUnauthenticated:
			if onLoginPage {
				return allowNavigation(), nil
			}
			return redirectTo(RouteLogin), nil

		case StateAuthenticating:
			fetchErr := bootstrap.fetchProfile(ctx)
			if fetchErr == nil || errors.Is(fetchErr, ErrStaleResponse) {
				continue
			}
			return bootstrap.resolveProfileFailure(fetchErr, onLoginPage)

		case StateResolving:
			timeoutErr := bootstrap.resolveStoreAndPermissions(ctx, snapshot)
			if timeoutErr != nil {
				return bootstrap.decideAuthorized(bootstrap.session.Snapshot(), path, onLoginPage), timeoutErr
			}
			continue

		case StateAuthorized:
			return bootstrap.decideAuthorized(snapshot, path, onLoginPage), nil
		}
	}

	return redirectTo(RouteLogin), ErrTransitionLoop
}

func (bootstrap *Bootstrap) decideAuthorized(snapshot session.Snapshot, path string, onLoginPage bool) Decision {
	permissions := model.RoutePermissions{}
	if snapshot.RoutePermissions != nil {
		permissions = *snapshot.RoutePermissions
	} else {
		// Best-effort fallback after a timeout mid-resolution.
		permissions = ResolvePermissions(snapshot.View, snapshot.StoreInfo)
	}

	if onLoginPage {
		return redirectTo(permissions.DefaultRoute)
	}
	if !permissions.Allows(path) {
		return redirectTo(permissions.DefaultRoute)
	}
	return allowNavigation()
}

func (bootstrap *Bootstrap) resolveProfileFailure(fetchErr error, onLoginPage bool) (Decision, error) {
	if errors.Is(fetchErr, context.DeadlineExceeded) {
		// The bounded wait elapsed with no view at all; navigation falls back
		// to the unauthenticated flow but the session keeps its tokens so a
		// later navigation can retry.
		bootstrap.session.MarkInitialized()
		if onLoginPage {
			return allowNavigation(), ErrBootstrapTimeout
		}
		return redirectTo(RouteLogin), ErrBootstrapTimeout
	}

	var apiErr *apiclient.APIError
	if errors.As(fetchErr, &apiErr) && apiErr.IsUnauthorized() {
		bootstrap.logger.Info(logEventForcedLogout, zap.Error(fetchErr))
		bootstrap.session.Logout()
		if onLoginPage {
			return allowNavigation(), nil
		}
		return redirectTo(RouteLogin), nil
	}

	// Any other failure keeps the tokens but denies protected navigation.
	bootstrap.logger.Warn(logEventProfileFetchFailed, zap.Error(fetchErr))
	if onLoginPage {
		return allowNavigation(), nil
	}
	return redirectTo(RouteLogin), nil
}

// resolveStoreAndPermissions fetches store info when the view requires it and
// caches the resolved permissions. Only a timeout is reported; store fetch
// failures degrade to a nil store snapshot.
func (bootstrap *Bootstrap) resolveStoreAndPermissions(ctx context.Context, snapshot session.Snapshot) error {
	var timeoutErr error

	if storeID, required := storeFetchTarget(snapshot); required {
		fetchErr := bootstrap.fetchStore(ctx, storeID)
		switch {
		case fetchErr == nil:
		case errors.Is(fetchErr, context.DeadlineExceeded):
			timeoutErr = ErrBootstrapTimeout
		default:
			bootstrap.logger.Warn(logEventStoreFetchFailed, zap.String(logFieldStoreID, storeID), zap.Error(fetchErr))
		}
	}

	refreshed := bootstrap.session.Snapshot()
	if refreshed.View != nil {
		permissions := ResolvePermissions(refreshed.View, refreshed.StoreInfo)
		bootstrap.session.SetRoutePermissions(permissions)
	}
	return timeoutErr
}

// storeFetchTarget reports whether the session needs a store-info fetch and
// for which store. Only client views with at least one access grant do, and
// an already-present snapshot is never refetched.
func storeFetchTarget(snapshot session.Snapshot) (string, bool) {
	if snapshot.View == nil || snapshot.View.Type != model.ViewTypeClient {
		return "", false
	}
	if snapshot.StoreInfo != nil {
		return "", false
	}
	if len(snapshot.Accesses) == 0 {
		return "", false
	}
	return snapshot.Accesses[0].StoreID, true
}

// fetchProfile performs the profile fetch at most once across overlapping
// navigations; concurrent callers wait for the in-flight result instead of
// issuing a duplicate request.
func (bootstrap *Bootstrap) fetchProfile(ctx context.Context) error {
	return bootstrap.coalesce(ctx, &bootstrap.profileFlight, bootstrap.doFetchProfile)
}

func (bootstrap *Bootstrap) fetchStore(ctx context.Context, storeID string) error {
	return bootstrap.coalesce(ctx, &bootstrap.storeFlight, func(flightCtx context.Context) error {
		return bootstrap.doFetchStore(flightCtx, storeID)
	})
}

func (bootstrap *Bootstrap) coalesce(ctx context.Context, slot **fetchFlight, fetch func(context.Context) error) error {
	<-bootstrap.flightMutex
	if existing := *slot; existing != nil {
		bootstrap.flightMutex <- struct{}{}
		select {
		case <-existing.done:
			return existing.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	flight := &fetchFlight{done: make(chan struct{})}
	*slot = flight
	bootstrap.flightMutex <- struct{}{}

	flight.err = fetch(ctx)

	<-bootstrap.flightMutex
	*slot = nil
	bootstrap.flightMutex <- struct{}{}
	close(flight.done)

	return flight.err
}

func (bootstrap *Bootstrap) doFetchProfile(ctx context.Context) error {
	issuedTokens := bootstrap.session.Tokens()

	profile, fetchErr := bootstrap.client.GetUserProfile(ctx, issuedTokens)
	if fetchErr != nil {
		return fetchErr
	}

	// Stale-response guard: the credentials changed while the fetch was in
	// flight, so this response belongs to a session that no longer exists.
	if bootstrap.session.Tokens().AccessToken != issuedTokens.AccessToken {
		bootstrap.logger.Info(logEventStaleResponse, zap.String(logFieldState, StateAuthenticating.String()))
		return ErrStaleResponse
	}

	bootstrap.session.SetUserData(profile.User, profile.View, profile.Accesses)
	return nil
}

func (bootstrap *Bootstrap) doFetchStore(ctx context.Context, storeID string) error {
	issuedTokens := bootstrap.session.Tokens()

	storeInfo, fetchErr := bootstrap.client.GetStoreInfo(ctx, issuedTokens, storeID)
	if fetchErr != nil {
		return fetchErr
	}

	if bootstrap.session.Tokens().AccessToken != issuedTokens.AccessToken {
		bootstrap.logger.Info(logEventStaleResponse, zap.String(logFieldState, StateResolving.String()))
		return ErrStaleResponse
	}

	bootstrap.session.SetStoreInfo(storeInfo)
	return nil
}
