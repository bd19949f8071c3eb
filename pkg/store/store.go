// Package store persists named food webs as [graph.Document] values.
//
// This package defines the [Store] interface with implementations for
// different deployments:
//   - [MemoryStore]: in-process storage for tests and single-shot servers
//   - [FileStore]: one JSON file per web, for the CLI and local servers
//   - [MongoStore]: MongoDB collection for multi-instance API deployments
//
// Documents are keyed by web name, validated with
// errors.ValidateWebName. Missing webs yield a coded error with
// errors.ErrCodeWebNotFound so the API can map it to 404.
//
// # Usage
//
//	s, err := store.NewMongoStore(ctx, store.MongoConfig{URI: uri})
//	if err != nil {
//	    return err
//	}
//	defer s.Close(ctx)
//
//	doc.UpdatedAt = time.Now()
//	if err := s.Put(ctx, doc); err != nil {
//	    return err
//	}
package store

import (
	"context"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
)

// Store is the interface for web document backends.
type Store interface {
	// Get returns the document named name.
	Get(ctx context.Context, name string) (graph.Document, error)

	// Put creates or replaces a document.
	Put(ctx context.Context, doc graph.Document) error

	// Delete removes a document. Deleting a missing web is an error.
	Delete(ctx context.Context, name string) error

	// List returns all web names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func notFound(name string) error {
	return errs.New(errs.ErrCodeWebNotFound, "web %q not found", name)
}
