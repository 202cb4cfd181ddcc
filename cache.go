package freetime

import (
	"fmt"
	"sync/atomic"
)

type CacheStats struct {
	Hits   atomic.Int64
	Misses atomic.Int64
}

func (c *CacheStats) Hit() int64 {
	return c.Hits.Add(1)
}
func (c *CacheStats) Miss() int64 {
	return c.Misses.Add(1)
}
func (c *CacheStats) Reset() {
	c.Hits.Store(0)
	c.Misses.Store(0)
}
func (c *CacheStats) String() string {
	return fmt.Sprintf("CacheStats(Hits: %d, Misses: %d)", c.Hits.Load(), c.Misses.Load())
}
