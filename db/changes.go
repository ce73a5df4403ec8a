package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.vocdoni.io/dvote/log"
)

// ChangeEvent is one mutation observed on a watched collection. Old and New
// hold the document snapshots before and after the mutation; either may be
// empty depending on the operation (inserts have no Old, deletes no New).
type ChangeEvent struct {
	Collection string
	Operation  string
	Old        bson.Raw
	New        bson.Raw
}

// Change stream operation types.
const (
	OperationInsert  = "insert"
	OperationUpdate  = "update"
	OperationReplace = "replace"
	OperationDelete  = "delete"
)

// WatchChanges opens a change stream over the given collections and returns
// a channel of change events. The channel is closed when the context is
// cancelled or the stream breaks. Old snapshots require the collection to
// have change stream pre-images enabled, which initCollections takes care of
// for the watched collections.
func (ms *MongoStorage) WatchChanges(ctx context.Context, collections ...string) (<-chan *ChangeEvent, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"ns.coll": bson.M{"$in": collections},
			"operationType": bson.M{"$in": []string{
				OperationInsert, OperationUpdate, OperationReplace, OperationDelete,
			}},
		}}},
	}
	opts := options.ChangeStream().
		SetFullDocument(options.UpdateLookup).
		SetFullDocumentBeforeChange(options.WhenAvailable)
	stream, err := ms.client.Database(ms.database).Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}
	events := make(chan *ChangeEvent, 64)
	go func() {
		defer close(events)
		defer func() {
			_ = stream.Close(context.Background())
		}()
		for stream.Next(ctx) {
			var raw struct {
				OperationType            string   `bson:"operationType"`
				FullDocument             bson.Raw `bson:"fullDocument"`
				FullDocumentBeforeChange bson.Raw `bson:"fullDocumentBeforeChange"`
				Ns                       struct {
					Coll string `bson:"coll"`
				} `bson:"ns"`
			}
			if err := stream.Decode(&raw); err != nil {
				log.Warnw("could not decode change stream event", "error", err)
				continue
			}
			select {
			case events <- &ChangeEvent{
				Collection: raw.Ns.Coll,
				Operation:  raw.OperationType,
				Old:        raw.FullDocumentBeforeChange,
				New:        raw.FullDocument,
			}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Errorw(err, "change stream terminated")
		}
	}()
	return events, nil
}
