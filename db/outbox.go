package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxRecord returns the outbox record with the given ID.
func (ms *MongoStorage) OutboxRecord(id primitive.ObjectID) (*OutboxRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	record := &OutboxRecord{}
	if err := ms.outbox.FindOne(ctx, bson.M{"_id": id}).Decode(record); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// OutboxRecords returns outbox records, optionally filtered by status,
// newest first. The limit caps the result size; zero selects a sane default.
func (ms *MongoStorage) OutboxRecords(status OutboxStatus, limit int64) ([]*OutboxRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	cursor, err := ms.outbox.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var records []*OutboxRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SetOutboxRecord creates or updates an outbox record and returns its ID.
func (ms *MongoStorage) SetOutboxRecord(record *OutboxRecord) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	now := time.Now()
	record.UpdatedAt = now
	if record.ID == primitive.NilObjectID {
		record.ID = primitive.NewObjectID()
		record.CreatedAt = now
		if record.Status == "" {
			record.Status = OutboxPending
		}
		if _, err := ms.outbox.InsertOne(ctx, record); err != nil {
			return primitive.NilObjectID, fmt.Errorf("failed to create outbox record: %w", err)
		}
		return record.ID, nil
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := ms.outbox.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to update outbox record: %w", err)
	}
	return record.ID, nil
}

// MarkOutboxRecord stores the delivery outcome of a processed record.
func (ms *MongoStorage) MarkOutboxRecord(id primitive.ObjectID, status OutboxStatus,
	provider, messageID string, providerErrors []string,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	update := bson.M{
		"$set": bson.M{
			"status":         status,
			"provider":       provider,
			"messageId":      messageID,
			"providerErrors": providerErrors,
			"updatedAt":      time.Now(),
		},
		"$inc": bson.M{"attempts": 1},
	}
	res, err := ms.outbox.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark outbox record: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RequeueOutboxRecord resets a failed record to pending so the worker can
// pick it up again. Only failed records can be requeued.
func (ms *MongoStorage) RequeueOutboxRecord(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	res, err := ms.outbox.UpdateOne(ctx,
		bson.M{"_id": id, "status": OutboxFailed},
		bson.M{"$set": bson.M{"status": OutboxPending, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to requeue outbox record: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingOutboxRecords returns the IDs of pending records, oldest first.
// Used at startup to recover work enqueued before a restart.
func (ms *MongoStorage) PendingOutboxRecords() ([]primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetProjection(bson.M{"_id": 1})
	cursor, err := ms.outbox.Find(ctx, bson.M{"status": OutboxPending}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
