package session_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opensendlabs/dashboard_svc/internal/kvstore"
	"github.com/opensendlabs/dashboard_svc/internal/model"
	"github.com/opensendlabs/dashboard_svc/internal/session"
)

const (
	testAccessToken  = "access-token"
	testRefreshToken = "refresh-token"
	testClientToken  = "client-token"
	testUserEmail    = "owner@example.com"
)

var errStoreBroken = errors.New("store broken")

// brokenStore fails every operation, exercising the persistence fallback.
type brokenStore struct{}

func (brokenStore) Get(string) (string, bool, error) { return "", false, errStoreBroken }
func (brokenStore) Set(string, string) error         { return errStoreBroken }
func (brokenStore) SetMany(map[string]string) error  { return errStoreBroken }
func (brokenStore) Delete(string) error              { return errStoreBroken }

func testTokens() model.Tokens {
	return model.Tokens{
		AccessToken:  testAccessToken,
		RefreshToken: testRefreshToken,
		ClientToken:  testClientToken,
	}
}

func testUser() model.User {
	return model.User{ID: 7, Email: testUserEmail}
}

func adminView() model.View {
	return model.View{Type: model.ViewTypeAdmin}
}

func TestNewWithEmptyStoreStartsUnauthenticatedAndInitialized(t *testing.T) {
	currentSession := session.New(kvstore.NewMemoryStore(), nil)

	require.False(t, currentSession.IsAuthenticated())
	require.True(t, currentSession.IsInitialized())
	require.NoError(t, currentSession.LastError())
}

func TestNewWithPersistedTokensStartsAuthenticatedButUninitialized(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(kvstore.KeyAccessToken, testAccessToken))
	require.NoError(t, store.Set(kvstore.KeyRefreshToken, testRefreshToken))
	require.NoError(t, store.Set(kvstore.KeyClientToken, testClientToken))

	currentSession := session.New(store, nil)

	require.True(t, currentSession.IsAuthenticated())
	require.False(t, currentSession.IsInitialized())
	require.Equal(t, testTokens(), currentSession.Tokens())
}

func TestNewWithOnlyAccessTokenStaysUnauthenticated(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(kvstore.KeyAccessToken, testAccessToken))

	currentSession := session.New(store, nil)

	require.False(t, currentSession.IsAuthenticated())
	require.True(t, currentSession.IsInitialized())
}

func TestNewWithBrokenStoreFallsBackToDefaults(t *testing.T) {
	currentSession := session.New(brokenStore{}, nil)

	require.False(t, currentSession.IsAuthenticated())
	require.True(t, currentSession.IsInitialized())
	require.ErrorIs(t, currentSession.LastError(), errStoreBroken)
}

func TestSetCredentialsPersistsAllThreeTokens(t *testing.T) {
	store := kvstore.NewMemoryStore()
	currentSession := session.New(store, nil)

	currentSession.SetCredentials(testUser(), adminView(), nil, testTokens())

	require.True(t, currentSession.IsAuthenticated())
	require.True(t, currentSession.IsInitialized())

	for key, expected := range map[string]string{
		kvstore.KeyAccessToken:  testAccessToken,
		kvstore.KeyRefreshToken: testRefreshToken,
		kvstore.KeyClientToken:  testClientToken,
	} {
		value, present, readErr := store.Get(key)
		require.NoError(t, readErr)
		require.True(t, present, "missing %s", key)
		require.Equal(t, expected, value)
	}

	snapshot := currentSession.Snapshot()
	require.NotNil(t, snapshot.User)
	require.Equal(t, testUserEmail, snapshot.User.Email)
	require.NotNil(t, snapshot.View)
	require.Equal(t, model.ViewTypeAdmin, snapshot.View.Type)
}

func TestSetCredentialsInvalidatesCachedPermissions(t *testing.T) {
	currentSession := session.New(kvstore.NewMemoryStore(), nil)
	currentSession.SetRoutePermissions(model.RoutePermissions{AllowedRoutes: []string{"/admin"}, DefaultRoute: "/admin"})

	currentSession.SetCredentials(testUser(), adminView(), nil, testTokens())

	require.Nil(t, currentSession.Snapshot().RoutePermissions)
}

func TestUpdateTokensKeepsPreviousValuesWhenOmitted(t *testing.T) {
	currentSession := session.New(kvstore.NewMemoryStore(), nil)
	currentSession.SetCredentials(testUser(), adminView(), nil, testTokens())

	currentSession.UpdateTokens(model.Tokens{AccessToken: "rotated"})

	tokens := currentSession.Tokens()
	require.Equal(t, "rotated", tokens.AccessToken)
	require.Equal(t, testRefreshToken, tokens.RefreshToken)
	require.Equal(t, testClientToken, tokens.ClientToken)
	require.Nil(t, currentSession.Snapshot().RoutePermissions)
}

func TestLogoutClearsEverySessionFieldAndPersistedToken(t *testing.T) {
	store := kvstore.NewMemoryStore()
	currentSession := session.New(store, nil)
	currentSession.SetCredentials(testUser(), adminView(), nil, testTokens())
	currentSession.SetStoreInfo(&model.StoreInfo{})
	currentSession.SetRoutePermissions(model.RoutePermissions{AllowedRoutes: []string{"/admin"}, DefaultRoute: "/admin"})

	currentSession.Logout()

	require.False(t, currentSession.IsAuthenticated())
	require.True(t, currentSession.IsInitialized())

	snapshot := currentSession.Snapshot()
	require.Nil(t, snapshot.User)
	require.Nil(t, snapshot.View)
	require.Nil(t, snapshot.Accesses)
	require.Nil(t, snapshot.StoreInfo)
	require.Nil(t, snapshot.RoutePermissions)

	for _, key := range []string{kvstore.KeyAccessToken, kvstore.KeyRefreshToken, kvstore.KeyClientToken} {
		_, present, readErr := store.Get(key)
		require.NoError(t, readErr)
		require.False(t, present, "key %s should be removed", key)
	}
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	currentSession := session.New(kvstore.NewMemoryStore(), nil)

	// Swap in a broken store indirectly: construct a session over the broken
	// store and install credentials anyway.
	broken := session.New(brokenStore{}, nil)
	broken.SetCredentials(testUser(), adminView(), nil, testTokens())

	require.True(t, broken.IsAuthenticated())
	require.ErrorIs(t, broken.LastError(), errStoreBroken)

	// The healthy session is unaffected.
	require.NoError(t, currentSession.LastError())
}

func TestSnapshotIsACopy(t *testing.T) {
	currentSession := session.New(kvstore.NewMemoryStore(), nil)
	currentSession.SetCredentials(testUser(), adminView(), []model.Access{{StoreID: "1", UserID: 7, RoleID: 2}}, testTokens())

	snapshot := currentSession.Snapshot()
	snapshot.View.Type = model.ViewTypeClient
	snapshot.Accesses[0].StoreID = "mutated"

	fresh := currentSession.Snapshot()
	require.Equal(t, model.ViewTypeAdmin, fresh.View.Type)
	require.Equal(t, "1", fresh.Accesses[0].StoreID)
}
