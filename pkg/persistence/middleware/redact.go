package middleware

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks, before saving, every
// node or connection data value whose key matches one of the patterns, in
// every subgraph. The masked keys are listed in the document metadata under
// domain.KeyRedacted. The in-memory document is never modified.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, docID string, state *domain.GraphState) error {
	cloned := state.Clone()
	masked := make(map[string]bool)
	m.redactGraph(&cloned, masked)

	if len(masked) > 0 {
		if cloned.Metadata == nil {
			cloned.Metadata = make(map[string]string)
		}
		keys := make([]string, 0, len(masked))
		for k := range masked {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		cloned.Metadata[domain.KeyRedacted] = strings.Join(keys, ",")
	}
	return m.next.Save(ctx, docID, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, docID string) (*domain.GraphState, error) {
	return m.next.Load(ctx, docID)
}

func (m *redactMiddleware) Delete(ctx context.Context, docID string) error {
	return m.next.Delete(ctx, docID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) redactGraph(s *domain.GraphState, masked map[string]bool) {
	for i := range s.Nodes {
		m.redactValue(s.Nodes[i].Data, masked)
		if s.Nodes[i].Subgraph != nil {
			m.redactGraph(s.Nodes[i].Subgraph, masked)
		}
	}
	for i := range s.Connections {
		m.redactValue(s.Connections[i].Data, masked)
	}
}

func (m *redactMiddleware) redactValue(v any, masked map[string]bool) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if m.matches(k) {
				t[k] = Mask
				masked[k] = true
				continue
			}
			m.redactValue(child, masked)
		}
	case []any:
		for _, child := range t {
			m.redactValue(child, masked)
		}
	}
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
