// Package topics assigns chat messages to a small catalog of conversation
// topics and aggregates the result into percentage shares for analytics.
//
// Matching is deterministic: each topic is a keyword set, a message is a
// token set, and the score is their Jaccard similarity |M ∩ T| / |M ∪ T|.
// A Classifier is immutable after construction and safe for concurrent use.
package topics

import (
	"regexp"
	"sort"
	"strings"
)

// Topic is one catalog entry.
type Topic struct {
	Name     string
	Keywords []string
}

// Share is a topic's percentage of the classified messages.
type Share struct {
	Name       string
	Percentage int
}

// DefaultCatalog mirrors the dashboard's topic buckets.
var DefaultCatalog = []Topic{
	{Name: "Technology", Keywords: []string{
		"tech", "technology", "computer", "code", "coding", "programming", "software", "app", "apps",
		"ai", "phone", "internet", "data", "robot", "robots", "gadget", "gadgets", "startup",
	}},
	{Name: "Lifestyle", Keywords: []string{
		"weekend", "weekends", "food", "cooking", "travel", "walk", "walks", "coffee", "home",
		"health", "fitness", "sleep", "friends", "family", "hobby", "hobbies", "relax", "garden",
	}},
	{Name: "Career", Keywords: []string{
		"job", "jobs", "work", "career", "boss", "salary", "interview", "office", "team",
		"promotion", "project", "projects", "goals", "business", "skills", "manager", "deadline",
	}},
	{Name: "Entertainment", Keywords: []string{
		"movie", "movies", "film", "music", "song", "songs", "game", "games", "gaming", "book",
		"books", "show", "shows", "series", "concert", "netflix", "band", "novel",
	}},
}

// EnglishStopwords are dropped from messages before matching.
var EnglishStopwords = []string{
	"a", "an", "and", "are", "do", "does", "for", "how", "i", "in", "is", "it", "me", "my",
	"of", "on", "or", "so", "the", "to", "what", "why", "you", "your",
}

// Option configures a Classifier.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	minScore  float64
}

// WithStopwords replaces the stop-word list.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMinScore sets the lowest similarity that still counts as a match.
// Values <= 0 accept any overlap.
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s > 0 {
			c.minScore = s
		}
	}
}

type entry struct {
	name   string
	tokens map[string]struct{}
}

// Classifier matches messages against a topic catalog.
type Classifier struct {
	cfg     config
	entries []entry
}

// New builds a Classifier over catalog. Topics without usable keywords are
// skipped.
func New(catalog []Topic, opts ...Option) *Classifier {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	c := &Classifier{cfg: cfg}
	for _, t := range catalog {
		toks := tokenize(strings.Join(t.Keywords, " "), nil)
		if strings.TrimSpace(t.Name) == "" || len(toks) == 0 {
			continue
		}
		c.entries = append(c.entries, entry{name: t.Name, tokens: toks})
	}
	return c
}

// Classify returns the best-matching topic for text. Ties go to the topic
// listed first in the catalog. ok is false when nothing matches.
func (c *Classifier) Classify(text string) (name string, score float64, ok bool) {
	if c == nil || len(c.entries) == 0 {
		return "", 0, false
	}
	msg := tokenize(text, c.cfg.stopwords)
	if len(msg) == 0 {
		return "", 0, false
	}
	for _, e := range c.entries {
		over := overlap(msg, e.tokens)
		if over == 0 {
			continue
		}
		s := float64(over) / float64(len(msg)+len(e.tokens)-over)
		if s < c.cfg.minScore || s <= score {
			continue
		}
		name, score, ok = e.name, s, true
	}
	return name, score, ok
}

// Shares classifies every message and returns the matched topics ordered by
// share, largest first, then by name. Percentages sum to 100 using largest
// remainder rounding. Unmatched messages are ignored; nil means no match.
func (c *Classifier) Shares(messages []string) []Share {
	counts := make(map[string]int)
	total := 0
	for _, m := range messages {
		if name, _, ok := c.Classify(m); ok {
			counts[name]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	type row struct {
		name  string
		count int
		pct   int
		rem   int
	}
	rows := make([]row, 0, len(counts))
	sum := 0
	for name, n := range counts {
		pct := n * 100 / total
		rows = append(rows, row{name: name, count: n, pct: pct, rem: n * 100 % total})
		sum += pct
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].rem != rows[b].rem {
			return rows[a].rem > rows[b].rem
		}
		return rows[a].name < rows[b].name
	})
	for i := 0; sum < 100; i = (i + 1) % len(rows) {
		rows[i].pct++
		sum++
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].pct != rows[b].pct {
			return rows[a].pct > rows[b].pct
		}
		return rows[a].name < rows[b].name
	})

	out := make([]Share, len(rows))
	for i, r := range rows {
		out[i] = Share{Name: r.name, Percentage: r.pct}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
