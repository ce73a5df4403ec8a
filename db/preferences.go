package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationPreferences returns the stored preferences of the member.
// Absence of a record is not an error for senders; callers that want the
// permissive default should use NotificationPreferencesOrDefault.
func (ms *MongoStorage) NotificationPreferences(memberID primitive.ObjectID) (*NotificationPreferences, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	prefs := &NotificationPreferences{}
	if err := ms.preferences.FindOne(ctx, bson.M{"_id": memberID}).Decode(prefs); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return prefs, nil
}

// NotificationPreferencesOrDefault returns the stored preferences of the
// member, or the all-enabled defaults when the member never stored any.
func (ms *MongoStorage) NotificationPreferencesOrDefault(memberID primitive.ObjectID) (*NotificationPreferences, error) {
	prefs, err := ms.NotificationPreferences(memberID)
	if err != nil {
		if err == ErrNotFound {
			return DefaultNotificationPreferences(memberID), nil
		}
		return nil, err
	}
	return prefs, nil
}

// SetNotificationPreferences stores the preferences of the member, replacing
// any previous record.
func (ms *MongoStorage) SetNotificationPreferences(prefs *NotificationPreferences) error {
	if prefs == nil || prefs.MemberID == primitive.NilObjectID {
		return ErrInvalidData
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	opts := options.Replace().SetUpsert(true)
	if _, err := ms.preferences.ReplaceOne(ctx, bson.M{"_id": prefs.MemberID}, prefs, opts); err != nil {
		return fmt.Errorf("failed to store notification preferences: %w", err)
	}
	return nil
}
