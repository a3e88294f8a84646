package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/entitygraph/pkg/cache"
	"github.com/matzehuels/entitygraph/pkg/errors"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "entitygraph"
	DefaultMongoCollection = "datasets"
)

// MongoStore keeps datasets in a MongoDB collection, one document per
// dataset keyed by _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// MongoOption configures a MongoStore.
type MongoOption func(*mongoConfig)

type mongoConfig struct {
	database   string
	collection string
}

// WithDatabase selects the database.
func WithDatabase(name string) MongoOption {
	return func(c *mongoConfig) { c.database = name }
}

// WithCollection selects the collection.
func WithCollection(name string) MongoOption {
	return func(c *mongoConfig) { c.collection = name }
}

// NewMongoStore connects to uri (mongodb://host:port) and pings the server,
// retrying transient failures.
func NewMongoStore(ctx context.Context, uri string, opts ...MongoOption) (*MongoStore, error) {
	cfg := mongoConfig{database: DefaultMongoDatabase, collection: DefaultMongoCollection}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.database).Collection(cfg.collection),
		now:    time.Now,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Dataset, error) {
	if err := errors.ValidateDatasetID(id); err != nil {
		return nil, err
	}
	var ds Dataset
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&ds)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "find dataset %s", id)
	}
	return &ds, nil
}

func (s *MongoStore) Save(ctx context.Context, ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	if ds.CreatedAt.IsZero() {
		if prev, err := s.Get(ctx, ds.ID); err == nil {
			ds.CreatedAt = prev.CreatedAt
		}
	}
	stamp(ds, s.now().UTC().Truncate(time.Millisecond))

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": ds.ID}, ds, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save dataset %s", ds.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateDatasetID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete dataset %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Dataset, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list datasets")
	}
	out := []Dataset{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode datasets: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
