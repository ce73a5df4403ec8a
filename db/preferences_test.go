package db

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotificationPreferences(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	memberID := primitive.NewObjectID()
	// absent record is not found
	prefs, err := testDB.NotificationPreferences(memberID)
	c.Assert(prefs, qt.IsNil)
	c.Assert(err, qt.Equals, ErrNotFound)
	// but the default lookup resolves to the all-enabled record
	prefs, err = testDB.NotificationPreferencesOrDefault(memberID)
	c.Assert(err, qt.IsNil)
	c.Assert(prefs.TrainingEmail, qt.IsTrue)
	c.Assert(prefs.TrainingSMS, qt.IsTrue)
	c.Assert(prefs.AnnouncementSMS, qt.IsTrue)
	// store explicit preferences
	prefs.TrainingEmail = false
	prefs.AnnouncementSMS = false
	c.Assert(testDB.SetNotificationPreferences(prefs), qt.IsNil)
	stored, err := testDB.NotificationPreferences(memberID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.TrainingEmail, qt.IsFalse)
	c.Assert(stored.TrainingSMS, qt.IsTrue)
	c.Assert(stored.AnnouncementSMS, qt.IsFalse)
	// storing again replaces the record
	stored.TrainingEmail = true
	c.Assert(testDB.SetNotificationPreferences(stored), qt.IsNil)
	stored, err = testDB.NotificationPreferences(memberID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.TrainingEmail, qt.IsTrue)
}
