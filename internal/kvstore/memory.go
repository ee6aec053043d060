package kvstore

import "sync"

// MemoryStore is an in-memory Store used by tests and as the fallback when
// durable persistence is unavailable.
type MemoryStore struct {
	mutex   sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get returns the stored value and whether the key was present.
func (store *MemoryStore) Get(key string) (string, bool, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	value, present := store.entries[key]
	return value, present, nil
}

// Set writes the value under the key, replacing any previous value.
func (store *MemoryStore) Set(key string, value string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.entries[key] = value
	return nil
}

// SetMany writes every entry under one lock acquisition.
func (store *MemoryStore) SetMany(entries map[string]string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for key, value := range entries {
		store.entries[key] = value
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (store *MemoryStore) Delete(key string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	delete(store.entries, key)
	return nil
}
