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

// TrainingSession method returns the training session with the given ID.
func (ms *MongoStorage) TrainingSession(id primitive.ObjectID) (*TrainingSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	session := &TrainingSession{}
	if err := ms.trainings.FindOne(ctx, bson.M{"_id": id}).Decode(session); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

// TrainingSessions returns the training sessions of the organization, newest
// first.
func (ms *MongoStorage) TrainingSessions(orgID primitive.ObjectID) ([]*TrainingSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	cursor, err := ms.trainings.Find(ctx, bson.M{"orgID": orgID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var sessions []*TrainingSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// MemberTrainingSessions returns the training sessions logged by the member,
// newest first.
func (ms *MongoStorage) MemberTrainingSessions(memberID primitive.ObjectID) ([]*TrainingSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	cursor, err := ms.trainings.Find(ctx, bson.M{"memberID": memberID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var sessions []*TrainingSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SetTrainingSession creates or updates a training session.
func (ms *MongoStorage) SetTrainingSession(session *TrainingSession) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if session.ID == primitive.NilObjectID {
		session.ID = primitive.NewObjectID()
		session.CreatedAt = time.Now()
		if _, err := ms.trainings.InsertOne(ctx, session); err != nil {
			return primitive.NilObjectID, fmt.Errorf("failed to create training session: %w", err)
		}
		return session.ID, nil
	}
	updateDoc, err := dynamicUpdateDocument(session, nil)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if _, err := ms.trainings.UpdateOne(ctx, bson.M{"_id": session.ID}, updateDoc); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to update training session: %w", err)
	}
	return session.ID, nil
}

// VerifyTrainingSession marks the session as verified by the given verifier
// name. The change feed picks up the transition and triggers the training
// verified notification.
func (ms *MongoStorage) VerifyTrainingSession(id primitive.ObjectID, verifiedBy string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	res, err := ms.trainings.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"verified":   true,
			"verifiedBy": verifiedBy,
			"verifiedAt": time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to verify training session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DelTrainingSession removes the training session with the given ID.
func (ms *MongoStorage) DelTrainingSession(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	_, err := ms.trainings.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
