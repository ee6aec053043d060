package kvstore

const (
	storageKeyPrefix = "opensend-"

	// KeyAccessToken persists the access bearer token.
	KeyAccessToken = storageKeyPrefix + "access-token"
	// KeyClientToken persists the client token.
	KeyClientToken = storageKeyPrefix + "client-token"
	// KeyRefreshToken persists the refresh token.
	KeyRefreshToken = storageKeyPrefix + "refresh-token"
	// KeyDashboardWidgets persists the widget list as a JSON array.
	KeyDashboardWidgets = storageKeyPrefix + "dashboard-widgets"
	// KeyDashboardLayouts persists the layout map keyed by breakpoint.
	KeyDashboardLayouts = storageKeyPrefix + "dashboard-layouts"
)

// Store is the durable key-value persistence surface. Values are opaque
// strings; callers JSON-encode structured payloads.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool, error)
	// Set writes the value under the key, replacing any previous value.
	Set(key string, value string) error
	// SetMany writes every entry in one transaction; either all entries are
	// persisted or none are.
	SetMany(entries map[string]string) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
}
