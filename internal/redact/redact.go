package redact

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/compliancescribe/internal/model"
)

// Policy selects how overlapping or repeated entity texts are resolved.
type Policy string

const (
	// PolicyLongest replaces in a single left-to-right pass, preferring the
	// longest entity text at each position.
	PolicyLongest Policy = "longest"

	// PolicySequential replaces every occurrence of each entity in input
	// order. Later entities may match inside earlier tags.
	PolicySequential Policy = "sequential"
)

// ErrUnknownPolicy is returned by ParsePolicy for unrecognized names.
var ErrUnknownPolicy = errors.New("unknown redaction policy")

// ParsePolicy converts a policy name. An empty name selects PolicyLongest.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyLongest:
		return PolicyLongest, nil
	case PolicySequential:
		return PolicySequential, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Tag returns the replacement for an entity category.
func Tag(category string) string {
	return "[" + category + "]"
}

// Redactor replaces entity texts in transcripts.
// The zero value uses PolicyLongest and case-sensitive matching.
type Redactor struct {
	policy     Policy
	ignoreCase bool
}

// Option configures a Redactor.
type Option func(*Redactor)

// WithPolicy sets the redaction policy.
func WithPolicy(p Policy) Option {
	return func(r *Redactor) {
		r.policy = p
	}
}

// WithIgnoreCase enables case-insensitive matching.
func WithIgnoreCase(ignore bool) Option {
	return func(r *Redactor) {
		r.ignoreCase = ignore
	}
}

// New creates a Redactor.
func New(opts ...Option) *Redactor {
	r := &Redactor{policy: PolicyLongest}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redact returns text with entity occurrences replaced by their tags.
// Entities with empty text are ignored. The input is returned unchanged
// when no entity applies.
func (r *Redactor) Redact(text string, entities []model.Entity) string {
	if text == "" || len(entities) == 0 {
		return text
	}
	if r.policy == PolicySequential {
		return r.sequential(text, entities)
	}
	return r.longest(text, entities)
}

// Redact is a convenience wrapper using the default Redactor.
func Redact(text string, entities []model.Entity) string {
	return New().Redact(text, entities)
}

func (r *Redactor) sequential(text string, entities []model.Entity) string {
	for _, e := range entities {
		if e.Text == "" {
			continue
		}
		if r.ignoreCase {
			re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(e.Text))
			text = re.ReplaceAllLiteralString(text, Tag(e.Category))
			continue
		}
		text = strings.ReplaceAll(text, e.Text, Tag(e.Category))
	}
	return text
}

// longest builds one alternation of all entity texts, longest first. Go's
// regexp picks the first matching alternative at the leftmost position, so
// the ordering yields leftmost-longest non-overlapping matches.
func (r *Redactor) longest(text string, entities []model.Entity) string {
	tags := make(map[string]string)
	keys := make([]string, 0, len(entities))
	for _, e := range entities {
		if e.Text == "" {
			continue
		}
		key := r.key(e.Text)
		if _, ok := tags[key]; ok {
			continue
		}
		tags[key] = Tag(e.Category)
		keys = append(keys, e.Text)
	}
	if len(keys) == 0 {
		return text
	}

	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	pattern := strings.Join(quoted, "|")
	if r.ignoreCase {
		pattern = "(?i)" + pattern
	}
	re := regexp.MustCompile(pattern)

	return re.ReplaceAllStringFunc(text, func(match string) string {
		if tag, ok := tags[r.key(match)]; ok {
			return tag
		}
		// Unicode case folding can match spellings that ToLower does not map.
		for _, k := range keys {
			if strings.EqualFold(k, match) {
				return tags[r.key(k)]
			}
		}
		return match
	})
}

func (r *Redactor) key(s string) string {
	if r.ignoreCase {
		return strings.ToLower(s)
	}
	return s
}
