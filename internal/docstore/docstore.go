// Package docstore defines the document database the callable functions
// run against: collections of JSON documents addressed by identifier.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrExists is returned by Create when the identifier is taken.
	ErrExists = errors.New("document already exists")
)

// Document is a stored JSON document.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode document %q: %w", d.ID, err)
	}
	return nil
}

// Store is a document database. Collections are slash-separated paths such
// as "exams" or "exams/my-exam/questions". Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns every document of the collection ordered by the named
	// top-level field, or by insertion when orderBy is empty.
	Query(ctx context.Context, collection, orderBy string) ([]Document, error)

	// Create stores a new document and fails with ErrExists when the
	// identifier is already in use.
	Create(ctx context.Context, collection, id string, data any) error

	// Set replaces the document, creating it when missing.
	Set(ctx context.Context, collection, id string, data any) error

	// Update merges top-level fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// DeleteCollection removes every document of the collection.
	DeleteCollection(ctx context.Context, collection string) error
}

// Collection joins path segments into a collection path.
func Collection(segments ...string) string {
	return path.Join(segments...)
}

// Marshal encodes a document body. json.RawMessage values pass through.
func Marshal(data any) (json.RawMessage, error) {
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// Merge applies fields on top of a JSON object.
func Merge(doc json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	obj := make(map[string]json.RawMessage)
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &obj); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		obj[k] = b
	}
	return json.Marshal(obj)
}
