package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization method returns the organization with the given ID. If the
// organization doesn't exist, it returns ErrNotFound.
func (ms *MongoStorage) Organization(id primitive.ObjectID) (*Organization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	org := &Organization{}
	if err := ms.organizations.FindOne(ctx, bson.M{"_id": id}).Decode(org); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

// OrganizationBySlug method returns the organization with the given slug, the
// identifier used on public registration pages.
func (ms *MongoStorage) OrganizationBySlug(slug string) (*Organization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	org := &Organization{}
	if err := ms.organizations.FindOne(ctx, bson.M{"slug": slug}).Decode(org); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

// OrganizationByStripeID returns the organization whose subscription is
// linked to the given Stripe subscription identifier.
func (ms *MongoStorage) OrganizationByStripeID(stripeID string) (*Organization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	org := &Organization{}
	if err := ms.organizations.FindOne(ctx, bson.M{"subscription.stripeID": stripeID}).Decode(org); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

// SetOrganization method creates or updates the organization in the database.
// If the organization already exists, it updates only the non-zero fields.
func (ms *MongoStorage) SetOrganization(org *Organization) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if org.ID == primitive.NilObjectID {
		org.ID = primitive.NewObjectID()
		org.CreatedAt = time.Now()
		if _, err := ms.organizations.InsertOne(ctx, org); err != nil {
			return primitive.NilObjectID, fmt.Errorf("failed to create organization: %w", err)
		}
		return org.ID, nil
	}
	updateDoc, err := dynamicUpdateDocument(org, nil)
	if err != nil {
		return primitive.NilObjectID, err
	}
	opts := options.Update().SetUpsert(true)
	if _, err := ms.organizations.UpdateOne(ctx, bson.M{"_id": org.ID}, updateDoc, opts); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to update organization: %w", err)
	}
	return org.ID, nil
}

// SetOrganizationSubscription updates the subscription of the organization.
func (ms *MongoStorage) SetOrganizationSubscription(id primitive.ObjectID, sub *OrganizationSubscription) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	res, err := ms.organizations.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"subscription": sub}})
	if err != nil {
		return fmt.Errorf("failed to update organization subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementOrganizationCounters adds the given deltas to the usage counters
// of the organization. Negative deltas are allowed.
func (ms *MongoStorage) IncrementOrganizationCounters(id primitive.ObjectID, members, emails, sms int) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	_, err := ms.organizations.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{
			"counters.members":    members,
			"counters.sentEmails": emails,
			"counters.sentSMS":    sms,
		},
	})
	return err
}

// DelOrganization removes the organization with the given ID.
func (ms *MongoStorage) DelOrganization(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	_, err := ms.organizations.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
