// Package compress generalizes the Compress operator seam into a small
// named registry, adapting pkg/psp/operations/operation.go's
// Registry/Register/Get pattern from a fixed operation-chain table into a
// set of swappable codecs. The "lzip" entry is the production default; the
// rest are in-process codecs selectable via "archive --codec".
package compress

import (
	"fmt"
	"sync"

	"github.com/provide-io/archiveset/internal/operators"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]operators.Compress)
)

// Register adds a Compress implementation under its own Name().
func Register(c operators.Compress) {
	mu.Lock()
	defer mu.Unlock()
	registry[c.Name()] = c
}

// Get retrieves a registered codec by name.
func Get(name string) (operators.Compress, error) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown compression codec: %q", name)
	}
	return c, nil
}

// Names returns the registered codec names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
