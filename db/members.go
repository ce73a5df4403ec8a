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

// Member method returns the member with the given ID. If the member doesn't
// exist, it returns ErrNotFound.
func (ms *MongoStorage) Member(id primitive.ObjectID) (*Member, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	member := &Member{}
	if err := ms.members.FindOne(ctx, bson.M{"_id": id}).Decode(member); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

// MemberByEmail method returns the member of the given organization with the
// given email.
func (ms *MongoStorage) MemberByEmail(orgID primitive.ObjectID, email string) (*Member, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	member := &Member{}
	filter := bson.M{"orgID": orgID, "email": email}
	if err := ms.members.FindOne(ctx, filter).Decode(member); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

// Members method returns every member of the given organization.
func (ms *MongoStorage) Members(orgID primitive.ObjectID) ([]*Member, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	cursor, err := ms.members.Find(ctx, bson.M{"orgID": orgID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var members []*Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ApprovedMembers returns the approved and active members of the given
// organization, the audience of organization announcements.
func (ms *MongoStorage) ApprovedMembers(orgID primitive.ObjectID) ([]*Member, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	filter := bson.M{"orgID": orgID, "approved": true, "active": true}
	cursor, err := ms.members.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()
	var members []*Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// SetMember method creates or updates the member in the database. New members
// get a creation timestamp and default role.
func (ms *MongoStorage) SetMember(member *Member) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if member.ID == primitive.NilObjectID {
		member.ID = primitive.NewObjectID()
		member.CreatedAt = time.Now()
		if member.Role == "" {
			member.Role = MemberRoleMember
		}
		if _, err := ms.members.InsertOne(ctx, member); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return primitive.NilObjectID, ErrInvalidData
			}
			return primitive.NilObjectID, fmt.Errorf("failed to create member: %w", err)
		}
		return member.ID, nil
	}
	updateDoc, err := dynamicUpdateDocument(member, nil)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if _, err := ms.members.UpdateOne(ctx, bson.M{"_id": member.ID}, updateDoc); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to update member: %w", err)
	}
	return member.ID, nil
}

// ApproveMember marks the member as approved.
func (ms *MongoStorage) ApproveMember(id primitive.ObjectID) error {
	return ms.updateMemberFields(id, bson.M{"approved": true})
}

// SetMemberRole updates the role of the member.
func (ms *MongoStorage) SetMemberRole(id primitive.ObjectID, role MemberRole) error {
	if !IsValidMemberRole(role) {
		return ErrInvalidData
	}
	return ms.updateMemberFields(id, bson.M{"role": role})
}

// SetMemberActive flips the active flag of the member.
func (ms *MongoStorage) SetMemberActive(id primitive.ObjectID, active bool) error {
	return ms.updateMemberFields(id, bson.M{"active": active})
}

func (ms *MongoStorage) updateMemberFields(id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	res, err := ms.members.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DelMember removes the member and its notification preferences.
func (ms *MongoStorage) DelMember(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if _, err := ms.members.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	_, err := ms.preferences.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// CountMembers returns the number of members of the organization.
func (ms *MongoStorage) CountMembers(orgID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return ms.members.CountDocuments(ctx, bson.M{"orgID": orgID})
}
