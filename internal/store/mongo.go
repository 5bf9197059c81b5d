package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GeoPoint is a GeoJSON point, [longitude, latitude]
type GeoPoint struct {
	Type        string    `bson:"type,omitempty"`
	Coordinates []float64 `bson:"coordinates,omitempty"`
}

// mongoDocument is one record in the collection. lonlat is only set for
// geotagged photos so a 2dsphere index can serve "near" queries.
type mongoDocument struct {
	ID        string         `bson:"_id"`
	Digest    string         `bson:"digest"`
	Data      map[string]any `bson:"data"`
	LonLat    *GeoPoint      `bson:"lonlat,omitempty"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

// Mongo upserts records into a collection
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects and pings the server
func OpenMongo(ctx context.Context, dsn, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func newMongoDocument(entry Entry) (*mongoDocument, error) {
	var data map[string]any
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", entry.ID, err)
	}

	doc := &mongoDocument{
		ID:        entry.ID,
		Digest:    entry.Digest,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}

	lat, _ := data["latitude"].(float64)
	lon, _ := data["longitude"].(float64)
	if lat != 0 && lon != 0 {
		doc.LonLat = &GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
	}
	return doc, nil
}

func (m *Mongo) Set(ctx context.Context, entry Entry) error {
	doc, err := newMongoDocument(entry)
	if err != nil {
		return err
	}

	filter := bson.D{{Key: "_id", Value: entry.ID}}
	_, err = m.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert photo %s: %w", entry.ID, err)
	}
	return nil
}

// Digest implements DigestReader
func (m *Mongo) Digest(ctx context.Context, id string) (string, bool, error) {
	var doc struct {
		Digest string `bson:"digest"`
	}

	filter := bson.D{{Key: "_id", Value: id}}
	opts := options.FindOne().SetProjection(bson.D{{Key: "digest", Value: 1}})
	err := m.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find photo %s: %w", id, err)
	}
	return doc.Digest, true, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
