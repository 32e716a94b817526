package compiler

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/meikuraledutech/walletflow"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes compile artifacts keyed by a digest of the node sequence and edge
// count. Entries hold no node data; Compile attaches the data of the flow at hand, so a
// hit is indistinguishable from a fresh compile.
type Cache struct {
	mu      sync.Mutex
	size    int
	entries map[uint64]artifact
	order   []uint64
	group   singleflight.Group
}

// NewCache creates a cache holding at most size artifacts, evicting the oldest first.
// A size below 1 is treated as 1.
func NewCache(size int) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		size:    size,
		entries: make(map[uint64]artifact, size),
	}
}

// Len returns the number of cached artifacts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(nodes []walletflow.Node, edgeCount int) (artifact, bool) {
	key, ok := cacheKey(nodes, edgeCount)
	if !ok {
		return buildArtifact(nodes, edgeCount), false
	}

	c.mu.Lock()
	if art, found := c.entries[key]; found {
		c.mu.Unlock()
		return art, true
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		art := buildArtifact(nodes, edgeCount).withoutData()
		c.put(key, art)
		return art, nil
	})
	return v.(artifact), false
}

func (c *Cache) put(key uint64, art artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.entries[key]; found {
		return
	}
	for len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = art
	c.order = append(c.order, key)
}

// cacheKey hashes the JSON encoding of the nodes. Map keys are encoded sorted, so equal
// flows hash equally. Nodes that cannot be encoded are not cached.
func cacheKey(nodes []walletflow.Node, edgeCount int) (uint64, bool) {
	raw, err := json.Marshal(nodes)
	if err != nil {
		return 0, false
	}
	d := xxhash.New()
	_, _ = d.Write(raw)
	_, _ = d.WriteString("|" + strconv.Itoa(edgeCount))
	return d.Sum64(), true
}
