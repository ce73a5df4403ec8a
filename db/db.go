// Package db implements the MongoDB storage layer of the backend: one file
// per collection, typed sentinel errors and a change feed used by the
// notification bridge.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.vocdoni.io/dvote/log"
)

// Collection names, exported so the bridge can select which collections to
// watch on the change feed.
const (
	OrganizationsCollection = "organizations"
	MembersCollection       = "members"
	TrainingsCollection     = "trainingSessions"
	PreferencesCollection   = "notificationPreferences"
	PlansCollection         = "plans"
	OutboxCollection        = "notificationOutbox"
)

// MongoStorage uses an external MongoDB service for storing organizations,
// members, training sessions, notification preferences, plans and the
// notification outbox.
type MongoStorage struct {
	client   *mongo.Client
	database string

	organizations *mongo.Collection
	members       *mongo.Collection
	trainings     *mongo.Collection
	preferences   *mongo.Collection
	plans         *mongo.Collection
	outbox        *mongo.Collection
}

// New connects to the MongoDB server, initializes the collections and
// creates the indexes.
func New(url, database string) (*MongoStorage, error) {
	if url == "" {
		return nil, fmt.Errorf("mongo URL is not defined")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is not defined")
	}
	log.Infow("connecting to mongodb", "url", url, "database", database)
	opts := options.Client()
	opts.ApplyURI(url)
	opts.SetMaxConnecting(200)
	timeout := time.Second * 10
	opts.ConnectTimeout = &timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := client.Ping(ctx2, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	ms := &MongoStorage{
		client:   client,
		database: database,
	}
	if err := ms.initCollections(database); err != nil {
		return nil, err
	}
	if err := ms.createIndexes(); err != nil {
		return nil, err
	}
	return ms, nil
}

// Close disconnects the MongoDB client.
func (ms *MongoStorage) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.client.Disconnect(ctx); err != nil {
		log.Warn(err)
	}
}

// Reset drops every collection and recreates the indexes. Used by tests.
func (ms *MongoStorage) Reset() error {
	log.Infof("resetting database")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, collection := range ms.collections() {
		if err := collection.Drop(ctx); err != nil {
			return err
		}
	}
	if err := ms.initCollections(ms.database); err != nil {
		return err
	}
	return ms.createIndexes()
}

func (ms *MongoStorage) collections() []*mongo.Collection {
	return []*mongo.Collection{
		ms.organizations,
		ms.members,
		ms.trainings,
		ms.preferences,
		ms.plans,
		ms.outbox,
	}
}

// initCollections creates the collections in the MongoDB database if they
// don't exist. The members and training sessions collections enable change
// stream pre and post images, required by the change feed to expose old and
// new row snapshots.
func (ms *MongoStorage) initCollections(database string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	currentCollections, err := ms.collectionNames(ctx, database)
	if err != nil {
		return err
	}
	exists := func(name string) bool {
		for _, c := range currentCollections {
			if c == name {
				return true
			}
		}
		return false
	}
	// aux method to get a collection if it exists, or create it if it doesn't
	getCollection := func(name string, preImages bool) (*mongo.Collection, error) {
		if !exists(name) {
			opts := options.CreateCollection()
			if preImages {
				opts = opts.SetChangeStreamPreAndPostImages(bson.M{"enabled": true})
			}
			if err := ms.client.Database(database).CreateCollection(ctx, name, opts); err != nil {
				return nil, err
			}
		} else if preImages {
			err := ms.client.Database(database).RunCommand(ctx, bson.D{
				{Key: "collMod", Value: name},
				{Key: "changeStreamPreAndPostImages", Value: bson.M{"enabled": true}},
			}).Err()
			if err != nil {
				return nil, fmt.Errorf("failed to enable change stream pre-images: %w", err)
			}
		}
		return ms.client.Database(database).Collection(name), nil
	}
	if ms.organizations, err = getCollection(OrganizationsCollection, false); err != nil {
		return err
	}
	if ms.members, err = getCollection(MembersCollection, true); err != nil {
		return err
	}
	if ms.trainings, err = getCollection(TrainingsCollection, true); err != nil {
		return err
	}
	if ms.preferences, err = getCollection(PreferencesCollection, false); err != nil {
		return err
	}
	if ms.plans, err = getCollection(PlansCollection, false); err != nil {
		return err
	}
	if ms.outbox, err = getCollection(OutboxCollection, false); err != nil {
		return err
	}
	return nil
}

// collectionNames returns the names of the collections in the given database.
func (ms *MongoStorage) collectionNames(ctx context.Context, database string) ([]string, error) {
	cursor, err := ms.client.Database(database).ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var names []string
	for cursor.Next(ctx) {
		var info struct {
			Name string `bson:"name"`
		}
		if err := cursor.Decode(&info); err != nil {
			return nil, err
		}
		names = append(names, info.Name)
	}
	return names, cursor.Err()
}

// createIndexes creates the indexes for the collections.
func (ms *MongoStorage) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := ms.organizations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create index on organizations: %w", err)
	}
	if _, err := ms.members.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orgID", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create index on members: %w", err)
	}
	if _, err := ms.trainings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orgID", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "memberID", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create index on training sessions: %w", err)
	}
	if _, err := ms.outbox.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on outbox: %w", err)
	}
	return nil
}
