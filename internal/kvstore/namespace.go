package kvstore

// NamespacedStore prefixes every key before delegating to an inner Store,
// giving each browser session its own token namespace over one database.
type NamespacedStore struct {
	inner  Store
	prefix string
}

// NewNamespacedStore wraps the inner store under the given key prefix.
func NewNamespacedStore(inner Store, prefix string) *NamespacedStore {
	return &NamespacedStore{inner: inner, prefix: prefix}
}

// Get returns the stored value and whether the key was present.
func (store *NamespacedStore) Get(key string) (string, bool, error) {
	return store.inner.Get(store.prefix + key)
}

// Set writes the value under the prefixed key.
func (store *NamespacedStore) Set(key string, value string) error {
	return store.inner.Set(store.prefix+key, value)
}

// SetMany writes every entry under prefixed keys in one transaction.
func (store *NamespacedStore) SetMany(entries map[string]string) error {
	prefixed := make(map[string]string, len(entries))
	for key, value := range entries {
		prefixed[store.prefix+key] = value
	}
	return store.inner.SetMany(prefixed)
}

// Delete removes the prefixed key.
func (store *NamespacedStore) Delete(key string) error {
	return store.inner.Delete(store.prefix + key)
}
