package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Plan method returns the plan with the given ID.
func (ms *MongoStorage) Plan(id uint64) (*Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	plan := &Plan{}
	if err := ms.plans.FindOne(ctx, bson.M{"_id": id}).Decode(plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// PlanByStripePriceID returns the plan linked to the given Stripe price,
// used by the billing webhook to resolve subscription events.
func (ms *MongoStorage) PlanByStripePriceID(priceID string) (*Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	plan := &Plan{}
	if err := ms.plans.FindOne(ctx, bson.M{"stripePriceID": priceID}).Decode(plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// DefaultPlan returns the plan marked as default, assigned to organizations
// without an active subscription.
func (ms *MongoStorage) DefaultPlan() (*Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	plan := &Plan{}
	if err := ms.plans.FindOne(ctx, bson.M{"default": true}).Decode(plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// Plans returns every subscription plan.
func (ms *MongoStorage) Plans() ([]*Plan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	cursor, err := ms.plans.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var plans []*Plan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// SetPlan creates or updates a plan.
func (ms *MongoStorage) SetPlan(plan *Plan) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	opts := options.Replace().SetUpsert(true)
	if _, err := ms.plans.ReplaceOne(ctx, bson.M{"_id": plan.ID}, plan, opts); err != nil {
		return fmt.Errorf("failed to store plan: %w", err)
	}
	return nil
}
