package audit

import (
	"encoding/json"
	"sort"

	"github.com/crucial707/asset-audit/internal/models"
)

// Count is one key of an ordered tally.
type Count struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Counts tallies string keys and remembers the order each key was first seen.
// The zero value is ready to use.
type Counts struct {
	order []string
	index map[string]int
}

// Inc adds one to key.
func (c *Counts) Inc(key string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if _, ok := c.index[key]; !ok {
		c.order = append(c.order, key)
	}
	c.index[key]++
}

// Get returns the count for key, zero when never seen.
func (c *Counts) Get(key string) int {
	return c.index[key]
}

// Len is the number of distinct keys.
func (c *Counts) Len() int {
	return len(c.order)
}

// Total sums every count.
func (c *Counts) Total() int {
	n := 0
	for _, v := range c.index {
		n += v
	}
	return n
}

// Entries returns the tally in first-seen order.
func (c *Counts) Entries() []Count {
	out := make([]Count, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Count{Name: k, Count: c.index[k]})
	}
	return out
}

// Top returns at most n entries sorted by count descending. Ties keep
// first-seen order.
func (c *Counts) Top(n int) []Count {
	entries := c.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (c Counts) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Entries())
}

func (c Counts) MarshalYAML() (interface{}, error) {
	return c.Entries(), nil
}

// RiskCounts always holds HIGH, MEDIUM and LOW.
type RiskCounts map[models.RiskLevel]int

// NewRiskCounts returns counts with every level set to zero.
func NewRiskCounts() RiskCounts {
	rc := make(RiskCounts, len(models.RiskLevels))
	for _, l := range models.RiskLevels {
		rc[l] = 0
	}
	return rc
}

// Total sums all levels.
func (rc RiskCounts) Total() int {
	n := 0
	for _, v := range rc {
		n += v
	}
	return n
}

// Entries returns the levels in HIGH, MEDIUM, LOW order.
func (rc RiskCounts) Entries() []Count {
	out := make([]Count, 0, len(models.RiskLevels))
	for _, l := range models.RiskLevels {
		out = append(out, Count{Name: string(l), Count: rc[l]})
	}
	return out
}
