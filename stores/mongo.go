package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/imgstash/imgstash/models"
)

// MongoStore persists file records in a MongoDB collection. It is the
// default backend: one long-lived client established at boot, no
// reconnection logic of its own.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings it so connection problems
// surface at boot instead of on the first insert.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoStore{coll: client.Database(database).Collection(collection)}, nil
}

func (s *MongoStore) Insert(ctx context.Context, record *models.FileRecord) error {
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

func (s *MongoStore) Totals(ctx context.Context) (Totals, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "originalBytes", Value: bson.D{{Key: "$sum", Value: "$originalSize"}}},
			{Key: "compressedBytes", Value: bson.D{{Key: "$sum", Value: "$compressedSize"}}},
		}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return Totals{}, fmt.Errorf("aggregate totals: %w", err)
	}
	defer cur.Close(ctx)

	var row struct {
		Count           int64 `bson:"count"`
		OriginalBytes   int64 `bson:"originalBytes"`
		CompressedBytes int64 `bson:"compressedBytes"`
	}
	// An empty collection yields no group row; zero totals are correct then.
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return Totals{}, fmt.Errorf("decode totals: %w", err)
		}
	}
	if err := cur.Err(); err != nil {
		return Totals{}, fmt.Errorf("totals cursor: %w", err)
	}

	return Totals{
		Count:           row.Count,
		OriginalBytes:   row.OriginalBytes,
		CompressedBytes: row.CompressedBytes,
	}, nil
}

func (s *MongoStore) HasPath(ctx context.Context, path string) (bool, error) {
	err := s.coll.FindOne(ctx, bson.M{"path": path}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find by path: %w", err)
	}
	return true, nil
}
