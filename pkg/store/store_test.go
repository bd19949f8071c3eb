package store

import (
	"context"
	"os"
	"testing"
	"time"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
)

func sampleDoc(name string) graph.Document {
	return graph.Document{
		Name: name,
		Graph: graph.Graph{
			Nodes: []graph.Node{{ID: 1, Label: "Kelp"}, {ID: 2, Label: "Urchin"}},
			Links: []graph.Link{{Source: 1, Target: 2}},
		},
		Seed:      7,
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// exerciseStore runs the contract shared by every backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "reef"); !errs.Is(err, errs.ErrCodeWebNotFound) {
		t.Fatalf("Get(missing) err = %v, want WEB_NOT_FOUND", err)
	}

	for _, name := range []string{"reef", "lake"} {
		if err := s.Put(ctx, sampleDoc(name)); err != nil {
			t.Fatalf("Put(%s): %v", name, err)
		}
	}

	doc, err := s.Get(ctx, "reef")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Name != "reef" || doc.Seed != 7 || len(doc.Graph.Nodes) != 2 || doc.Graph.Nodes[0].Label != "Kelp" {
		t.Errorf("Get = %+v", doc)
	}
	if !doc.UpdatedAt.Equal(sampleDoc("reef").UpdatedAt) {
		t.Errorf("UpdatedAt = %v", doc.UpdatedAt)
	}

	updated := sampleDoc("reef")
	updated.Graph.Nodes = append(updated.Graph.Nodes, graph.Node{ID: 3})
	if err := s.Put(ctx, updated); err != nil {
		t.Fatalf("Put(update): %v", err)
	}
	if doc, _ := s.Get(ctx, "reef"); len(doc.Graph.Nodes) != 3 {
		t.Errorf("update not stored: %d nodes", len(doc.Graph.Nodes))
	}

	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "lake" || names[1] != "reef" {
		t.Errorf("List = %v, want [lake reef]", names)
	}

	if err := s.Put(ctx, sampleDoc("../escape")); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Put(invalid name) err = %v", err)
	}

	if err := s.Delete(ctx, "lake"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "lake"); !errs.Is(err, errs.ErrCodeWebNotFound) {
		t.Errorf("second Delete err = %v, want WEB_NOT_FOUND", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close(context.Background())
	exerciseStore(t, s)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close(context.Background())
	exerciseStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FOODWEB_TEST_MONGO")
	if uri == "" {
		t.Skip("FOODWEB_TEST_MONGO not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "foodweb_test", Collection: t.Name()})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer func() {
		_ = s.coll.Drop(ctx)
		_ = s.Close(ctx)
	}()
	exerciseStore(t, s)
}
