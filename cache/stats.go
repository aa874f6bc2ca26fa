package cache

import (
	"math"
	"sync/atomic"
)

// Stats counts cache lookups. The counters are advisory.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (s *Stats) Hit()  { s.hits.Add(1) }
func (s *Stats) Miss() { s.misses.Add(1) }

func (s *Stats) Hits() int64   { return s.hits.Load() }
func (s *Stats) Misses() int64 { return s.misses.Load() }

// HitRate returns hits as a percentage of lookups, rounded to two decimals
func (s *Stats) HitRate() float64 {
	hits, misses := s.Hits(), s.Misses()
	if hits+misses == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(hits+misses)*10000) / 100
}

// Report is the cache state exposed to operators
type Report struct {
	Enabled    bool    `json:"enabled"`
	Backend    string  `json:"backend"`
	Connected  bool    `json:"connected"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalKeys  int     `json:"total_keys"`
	DefaultTTL int64   `json:"default_ttl"`
}
