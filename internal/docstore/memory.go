package docstore

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
)

type memoryDoc struct {
	data json.RawMessage
	seq  int64
}

// Memory is an in-process Store used by tests and throwaway servers.
type Memory struct {
	mu          sync.RWMutex
	seq         int64
	collections map[string]map[string]memoryDoc
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]memoryDoc)}
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: d.data}, nil
}

func (m *Memory) Query(_ context.Context, collection, orderBy string) ([]Document, error) {
	m.mu.RLock()
	type entry struct {
		id  string
		doc memoryDoc
		key any
	}
	entries := make([]entry, 0, len(m.collections[collection]))
	for id, d := range m.collections[collection] {
		entries = append(entries, entry{id: id, doc: d})
	}
	m.mu.RUnlock()

	if orderBy != "" {
		for i := range entries {
			var obj map[string]any
			if err := json.Unmarshal(entries[i].doc.data, &obj); err == nil {
				entries[i].key = obj[orderBy]
			}
		}
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := compareValues(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.doc.seq, b.doc.seq)
	})

	docs := make([]Document, len(entries))
	for i, e := range entries {
		docs[i] = Document{ID: e.id, Data: e.doc.data}
	}
	return docs, nil
}

func (m *Memory) Create(_ context.Context, collection, id string, data any) error {
	raw, err := Marshal(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; ok {
		return ErrExists
	}
	m.put(collection, id, raw)
	return nil
}

func (m *Memory) Set(_ context.Context, collection, id string, data any) error {
	raw, err := Marshal(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, raw)
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	merged, err := Merge(d.data, fields)
	if err != nil {
		return err
	}
	d.data = merged
	m.collections[collection][id] = d
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) DeleteCollection(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

// put keeps the original insertion sequence when replacing a document.
func (m *Memory) put(collection, id string, raw json.RawMessage) {
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]memoryDoc)
		m.collections[collection] = docs
	}
	d, ok := docs[id]
	if !ok {
		m.seq++
		d.seq = m.seq
	}
	d.data = append(json.RawMessage(nil), raw...)
	docs[id] = d
}

// compareValues orders decoded JSON values: missing, then booleans, then
// numbers, then strings. Other kinds compare equal.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		return cmp.Compare(av, b.(float64))
	case string:
		return cmp.Compare(av, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
