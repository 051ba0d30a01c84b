package dedup

import (
	"strings"
	"sync"
	"unicode"
)

// overlapThreshold is the character-set overlap ratio above which two
// titles count as near-duplicates.
const overlapThreshold = 0.70

// Detector tracks titles accepted during one aggregation run and answers
// whether a candidate is a duplicate of something already accepted.
// It is safe for concurrent use; the zero value is not usable, call New.
type Detector struct {
	mu       sync.Mutex
	keys     map[string]struct{}
	accepted []string
}

// New creates an empty detector scoped to a single run.
func New() *Detector {
	return &Detector{keys: make(map[string]struct{})}
}

// Accept registers the title as accepted if it is not a duplicate.
// It returns false when the title repeats an exact dedup key or is a
// near-duplicate of a previously accepted title.
func (d *Detector) Accept(title string) bool {
	key := Key(title)
	if key == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, seen := d.keys[key]; seen {
		return false
	}
	norm := normalize(title)
	for _, prev := range d.accepted {
		if similar(norm, prev) {
			return false
		}
	}

	d.keys[key] = struct{}{}
	d.accepted = append(d.accepted, norm)
	return true
}

// Len returns the number of accepted titles.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys)
}

// Key returns the exact-match dedup key for a title.
func Key(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// normalize lowercases the title and strips all whitespace.
func normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// similar reports whether two normalized titles are near-duplicates:
// one contains the other, or their character sets overlap by more than
// the threshold relative to the smaller set.
func similar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	setA := charset(a)
	setB := charset(b)
	if len(setA) == 0 || len(setB) == 0 {
		return false
	}

	common := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			common++
		}
	}
	min := len(setA)
	if len(setB) < min {
		min = len(setB)
	}
	return float64(common)/float64(min) > overlapThreshold
}

func charset(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
