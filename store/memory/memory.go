// Package memory provides an in-memory source.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	sources map[string]source.SourceInfo
	rows    map[string][]fiscal.Row
}

func New() *Memory {
	return &Memory{
		sources: make(map[string]source.SourceInfo),
		rows:    make(map[string][]fiscal.Row),
	}
}

// SaveSource creates or updates a source. CreatedAt is kept from the first
// save.
func (m *Memory) SaveSource(_ context.Context, info source.SourceInfo) error {
	if info.ID == "" {
		return fmt.Errorf("source id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sources[info.ID]; ok {
		info.CreatedAt = existing.CreatedAt
	} else if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}
	m.sources[info.ID] = info
	return nil
}

// ReplaceRows replaces all rows of an existing source.
func (m *Memory) ReplaceRows(_ context.Context, sourceID string, rows []fiscal.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[sourceID]; !ok {
		return fmt.Errorf("%w: %s", source.ErrSourceNotFound, sourceID)
	}
	m.rows[sourceID] = append([]fiscal.Row(nil), rows...)
	return nil
}

// FetchRows returns a copy of the rows of a source.
func (m *Memory) FetchRows(_ context.Context, sourceID string) ([]fiscal.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sources[sourceID]; !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrSourceNotFound, sourceID)
	}
	return append([]fiscal.Row(nil), m.rows[sourceID]...), nil
}

// ListSources returns all sources ordered by name, then id.
func (m *Memory) ListSources(_ context.Context) ([]source.SourceInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]source.SourceInfo, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, s)
	}
	sortSources(out)
	return out, nil
}

// SearchSources returns sources whose name or description contains marker,
// case-insensitively.
func (m *Memory) SearchSources(ctx context.Context, marker string) ([]source.SourceInfo, error) {
	all, err := m.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(marker)
	var out []source.SourceInfo
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Name), needle) || strings.Contains(strings.ToLower(s.Description), needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

func sortSources(s []source.SourceInfo) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Name != s[j].Name {
			return s[i].Name < s[j].Name
		}
		return s[i].ID < s[j].ID
	})
}
