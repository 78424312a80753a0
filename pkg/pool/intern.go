// Package pool provides value interning for table ingestion.
package pool

import (
	"sync"
	"sync/atomic"
)

// DefaultInternSize bounds an Interner created with a non-positive size
const DefaultInternSize = 10000

// Interner deduplicates repeated strings so that equal cells loaded into a
// string column share one backing array. It holds at most maxSize distinct
// strings; once full, unseen strings are returned as given. The Interner is
// safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	strings map[string]string
	maxSize int
	hits    int64
	misses  int64
}

// NewInterner creates an interner holding at most maxSize strings
func NewInterner(maxSize int) *Interner {
	if maxSize <= 0 {
		maxSize = DefaultInternSize
	}
	return &Interner{
		strings: make(map[string]string, min(maxSize, 1024)),
		maxSize: maxSize,
	}
}

// Intern returns the interned copy of s
func (p *Interner) Intern(s string) string {
	p.mu.RLock()
	if interned, ok := p.strings[s]; ok {
		p.mu.RUnlock()
		atomic.AddInt64(&p.hits, 1)
		return interned
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if interned, ok := p.strings[s]; ok {
		atomic.AddInt64(&p.hits, 1)
		return interned
	}
	atomic.AddInt64(&p.misses, 1)
	if len(p.strings) >= p.maxSize {
		return s
	}
	p.strings[s] = s
	return s
}

// Stats returns the number of interned strings, hits and misses
func (p *Interner) Stats() (size int, hits, misses int64) {
	p.mu.RLock()
	size = len(p.strings)
	p.mu.RUnlock()
	return size, atomic.LoadInt64(&p.hits), atomic.LoadInt64(&p.misses)
}

// Reset drops every interned string and zeroes the counters
func (p *Interner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strings = make(map[string]string, min(p.maxSize, 1024))
	atomic.StoreInt64(&p.hits, 0)
	atomic.StoreInt64(&p.misses, 0)
}
