package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/foodweb/pkg/cache"
	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string        // default "foodweb"
	Collection string        // default "webs"
	Timeout    time.Duration // connect timeout, default 10s
}

// MongoStore keeps documents in a MongoDB collection keyed by web name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "foodweb"
	}
	if cfg.Collection == "" {
		cfg.Collection = "webs"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (graph.Document, error) {
	var doc graph.Document
	err := cache.RetryWithBackoff(ctx, func() error {
		return classify(s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc))
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return graph.Document{}, notFound(name)
	}
	if err != nil {
		return graph.Document{}, errs.Wrap(errs.ErrCodeInternal, err, "get web %q", name)
	}
	return doc, nil
}

func (s *MongoStore) Put(ctx context.Context, doc graph.Document) error {
	if err := errs.ValidateWebName(doc.Name); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	err := cache.RetryWithBackoff(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.Name}, doc, opts)
		return classify(err)
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "put web %q", doc.Name)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	var deleted int64
	err := cache.RetryWithBackoff(ctx, func() error {
		res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
		if err != nil {
			return classify(err)
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "delete web %q", name)
	}
	if deleted == 0 {
		return notFound(name)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	var rows []struct {
		Name string `bson:"_id"`
	}
	err := cache.RetryWithBackoff(ctx, func() error {
		cur, err := s.coll.Find(ctx, bson.M{}, opts)
		if err != nil {
			return classify(err)
		}
		return classify(cur.All(ctx, &rows))
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "list webs")
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// classify marks network and timeout failures as retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return err
}

var _ Store = (*MongoStore)(nil)
