package db

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTrainingSession(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	org := newTestOrganization(t, testOrgSlug)
	member := newTestMember(t, org.ID, testMemberEmail)
	// test not found session
	session, err := testDB.TrainingSession(primitive.NewObjectID())
	c.Assert(session, qt.IsNil)
	c.Assert(err, qt.Equals, ErrNotFound)
	// create a session
	created := &TrainingSession{
		OrgID:           org.ID,
		MemberID:        member.ID,
		Date:            time.Now().Add(-24 * time.Hour),
		DurationMinutes: 90,
		Discipline:      "pistol_25m",
		RangeName:       "Range A",
	}
	_, err = testDB.SetTrainingSession(created)
	c.Assert(err, qt.IsNil)
	session, err = testDB.TrainingSession(created.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(session.DurationMinutes, qt.Equals, 90)
	c.Assert(session.Verified, qt.IsFalse)
	// verify it
	c.Assert(testDB.VerifyTrainingSession(created.ID, "officer@example.com"), qt.IsNil)
	session, err = testDB.TrainingSession(created.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(session.Verified, qt.IsTrue)
	c.Assert(session.VerifiedBy, qt.Equals, "officer@example.com")
	c.Assert(session.VerifiedAt.IsZero(), qt.IsFalse)
	// list by organization and by member
	sessions, err := testDB.TrainingSessions(org.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(sessions, qt.HasLen, 1)
	sessions, err = testDB.MemberTrainingSessions(member.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(sessions, qt.HasLen, 1)
	// delete it
	c.Assert(testDB.DelTrainingSession(created.ID), qt.IsNil)
	_, err = testDB.TrainingSession(created.ID)
	c.Assert(err, qt.Equals, ErrNotFound)
}
