package docstore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/examtraining/examtraining/internal/docstore"
	"github.com/examtraining/examtraining/internal/docstore/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, docstore.NewMemory())
}

func TestMemory_QueryMixedKinds(t *testing.T) {
	ctx := context.Background()
	m := docstore.NewMemory()
	m.Set(ctx, "c", "str", map[string]any{"k": "x"})
	m.Set(ctx, "c", "num", map[string]any{"k": 5})
	m.Set(ctx, "c", "none", map[string]any{})
	m.Set(ctx, "c", "bool", map[string]any{"k": true})

	docs, _ := m.Query(ctx, "c", "k")
	want := []string{"none", "bool", "num", "str"}
	for i, d := range docs {
		if d.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, d.ID, want[i])
		}
	}
}

func TestMerge(t *testing.T) {
	got, err := docstore.Merge(json.RawMessage(`{"a":1,"b":"x"}`), map[string]any{"b": "y", "c": true})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	var obj map[string]any
	json.Unmarshal(got, &obj)
	if obj["a"] != 1.0 || obj["b"] != "y" || obj["c"] != true {
		t.Errorf("Merge = %s", got)
	}

	if _, err := docstore.Merge(json.RawMessage(`[1]`), nil); err == nil {
		t.Error("merging into a non-object should fail")
	}
}

func TestCollection(t *testing.T) {
	if got := docstore.Collection("exams", "my-exam", "questions"); got != "exams/my-exam/questions" {
		t.Errorf("Collection = %q", got)
	}
}
