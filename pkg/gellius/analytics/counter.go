package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Entry is one (token, count) pair of a ranking.
type Entry struct {
	Token string
	Count int
}

// MarshalJSON encodes an entry as ["token", count].
func (e Entry) MarshalJSON() ([]byte, error) {
	return marshalNoEscape([2]any{e.Token, e.Count})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("ranking entry: want [token, count], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Token); err != nil {
		return fmt.Errorf("ranking entry token: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Count); err != nil {
		return fmt.Errorf("ranking entry count: %w", err)
	}
	return nil
}

// Ranking is ordered by count descending, ties in first-seen order.
type Ranking []Entry

// Counter is a multiset that remembers the order tokens were first seen.
type Counter struct {
	counts map[string]int
	order  []string
	total  int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add counts each token once.
func (c *Counter) Add(tokens ...string) {
	for _, tok := range tokens {
		if _, seen := c.counts[tok]; !seen {
			c.order = append(c.order, tok)
		}
		c.counts[tok]++
		c.total++
	}
}

// Count returns the occurrences of tok.
func (c *Counter) Count(tok string) int {
	return c.counts[tok]
}

// Len returns the number of distinct tokens.
func (c *Counter) Len() int {
	return len(c.order)
}

// Total returns the number of tokens added.
func (c *Counter) Total() int {
	return c.total
}

// MostCommon returns the n most frequent tokens. Equal counts keep the
// order in which the tokens were first added. n <= 0 returns every token.
func (c *Counter) MostCommon(n int) Ranking {
	out := make(Ranking, len(c.order))
	for i, tok := range c.order {
		out[i] = Entry{Token: tok, Count: c.counts[tok]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
