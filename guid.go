package dataflow

import (
	"sync"
	"sync/atomic"
)

// GUIDGenerator hands out small unique integers, optionally namespaced
// (§2 "gen_guid"). A plugin's id is drawn from the global namespace; a
// plugin that wants to name several sub-components can draw ids within its
// own namespace so the pair (plugin id, sub id) stays unique without
// coordinating with anyone else.
type GUIDGenerator struct {
	mu         sync.Mutex
	namespaces map[guidKey]*atomic.Uint64
}

type guidKey struct {
	namespace, subnamespace, subsubnamespace uint64
}

// NewGUIDGenerator returns a generator whose first id in any namespace is 1.
func NewGUIDGenerator() *GUIDGenerator {
	return &GUIDGenerator{namespaces: make(map[guidKey]*atomic.Uint64)}
}

// Next returns a number unique among other calls sharing the same
// (namespace, subnamespace, subsubnamespace) tuple. Omit the arguments to
// draw from the single global namespace used for plugin ids.
func (g *GUIDGenerator) Next(namespace ...uint64) uint64 {
	var key guidKey
	switch len(namespace) {
	case 0:
	case 1:
		key.namespace = namespace[0]
	case 2:
		key.namespace, key.subnamespace = namespace[0], namespace[1]
	default:
		key.namespace, key.subnamespace, key.subsubnamespace = namespace[0], namespace[1], namespace[2]
	}

	g.mu.Lock()
	counter, ok := g.namespaces[key]
	if !ok {
		counter = &atomic.Uint64{}
		g.namespaces[key] = counter
	}
	g.mu.Unlock()

	return counter.Add(1)
}
