// Package storetest holds the behavior every docstore.Store must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/examtraining/examtraining/internal/docstore"
)

type item struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
	Note  string `json:"note,omitempty"`
}

// Run exercises s. The store must start empty.
func Run(t *testing.T, s docstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		if _, err := s.Get(ctx, "things", "nope"); !errors.Is(err, docstore.ErrNotFound) {
			t.Fatalf("Get = %v, want ErrNotFound", err)
		}
	})

	t.Run("create and get", func(t *testing.T) {
		if err := s.Create(ctx, "things", "a", item{Name: "alpha", Order: 2}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		err := s.Create(ctx, "things", "a", item{Name: "again"})
		if !errors.Is(err, docstore.ErrExists) {
			t.Fatalf("second Create = %v, want ErrExists", err)
		}

		doc, err := s.Get(ctx, "things", "a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		var got item
		if err := doc.Decode(&got); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if doc.ID != "a" || got.Name != "alpha" || got.Order != 2 {
			t.Fatalf("Get = %s %+v", doc.ID, got)
		}
	})

	t.Run("update merges fields", func(t *testing.T) {
		if err := s.Update(ctx, "things", "a", map[string]any{"note": "hi"}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		doc, _ := s.Get(ctx, "things", "a")
		var got item
		doc.Decode(&got)
		if got.Name != "alpha" || got.Note != "hi" {
			t.Fatalf("after Update = %+v", got)
		}

		err := s.Update(ctx, "things", "missing", map[string]any{"note": "x"})
		if !errors.Is(err, docstore.ErrNotFound) {
			t.Fatalf("Update(missing) = %v, want ErrNotFound", err)
		}
	})

	t.Run("query orders by field then insertion", func(t *testing.T) {
		s.Set(ctx, "things", "b", item{Name: "beta", Order: 1})
		s.Set(ctx, "things", "c", item{Name: "gamma", Order: 3})
		s.Set(ctx, "things", "d", item{Name: "delta", Order: 1})
		s.Set(ctx, "other", "z", item{Name: "zeta"})

		docs, err := s.Query(ctx, "things", "order")
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		want := []string{"b", "d", "a", "c"}
		if len(docs) != len(want) {
			t.Fatalf("Query returned %d documents, want %d", len(docs), len(want))
		}
		for i, d := range docs {
			if d.ID != want[i] {
				t.Fatalf("Query order = %v, want %v", ids(docs), want)
			}
		}

		docs, _ = s.Query(ctx, "things", "")
		if got := ids(docs); len(got) != 4 || got[0] != "a" || got[3] != "d" {
			t.Fatalf("insertion order = %v", got)
		}
	})

	t.Run("set replaces", func(t *testing.T) {
		if err := s.Set(ctx, "things", "b", item{Name: "bravo", Order: 1}); err != nil {
			t.Fatalf("Set: %v", err)
		}
		doc, _ := s.Get(ctx, "things", "b")
		var got item
		doc.Decode(&got)
		if got.Name != "bravo" || got.Note != "" {
			t.Fatalf("after Set = %+v", got)
		}
	})

	t.Run("nested collections are independent", func(t *testing.T) {
		sub := docstore.Collection("things", "a", "children")
		s.Set(ctx, sub, "x", item{Name: "child"})
		if _, err := s.Get(ctx, "things", "x"); !errors.Is(err, docstore.ErrNotFound) {
			t.Fatalf("child leaked into parent collection: %v", err)
		}
		docs, _ := s.Query(ctx, sub, "")
		if len(docs) != 1 {
			t.Fatalf("child collection has %d documents", len(docs))
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.Delete(ctx, "things", "c"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := s.Delete(ctx, "things", "c"); err != nil {
			t.Fatalf("Delete(missing): %v", err)
		}
		if _, err := s.Get(ctx, "things", "c"); !errors.Is(err, docstore.ErrNotFound) {
			t.Fatalf("Get after Delete = %v", err)
		}

		if err := s.DeleteCollection(ctx, "things"); err != nil {
			t.Fatalf("DeleteCollection: %v", err)
		}
		docs, _ := s.Query(ctx, "things", "")
		if len(docs) != 0 {
			t.Fatalf("%d documents left after DeleteCollection", len(docs))
		}
		if _, err := s.Get(ctx, "other", "z"); err != nil {
			t.Fatalf("DeleteCollection touched another collection: %v", err)
		}
	})
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
