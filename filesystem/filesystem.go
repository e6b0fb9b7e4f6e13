// Package filesystem routes every file access of the application through one afero backend,
// so tests can run against memory.
package filesystem

import (
	"sync"

	"github.com/spf13/afero"
)

var (
	mu      sync.RWMutex
	backend = afero.Afero{Fs: afero.NewOsFs()}
)

// API returns the current backend. The player goroutine and the front-end may call it concurrently.
func API() afero.Afero {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Use replaces the backend.
func Use(fs afero.Fs) {
	mu.Lock()
	backend = afero.Afero{Fs: fs}
	mu.Unlock()
}

func SetOsFs() { Use(afero.NewOsFs()) }

// SetMemMapFs switches to an empty in-memory backend.
func SetMemMapFs() { Use(afero.NewMemMapFs()) }
