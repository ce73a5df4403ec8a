package subscriptions

import (
	"context"
	"fmt"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/test"
)

var testDB *db.MongoStorage

func TestMain(m *testing.M) {
	ctx := context.Background()
	dbContainer, err := test.StartMongoContainer(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to start MongoDB container: %v", err))
	}
	mongoURI, err := test.MongoConnectionString(ctx, dbContainer)
	if err != nil {
		panic(fmt.Sprintf("failed to get MongoDB endpoint: %v", err))
	}
	testDB, err = db.New(mongoURI, test.RandomDatabaseName())
	if err != nil {
		panic(fmt.Sprintf("failed to create new MongoDB connection: %v", err))
	}
	code := m.Run()
	testDB.Close()
	if err := dbContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop MongoDB container: %v", err))
	}
	os.Exit(code)
}

func setupPlans(t *testing.T) {
	t.Helper()
	// a limited free default plan and an unlimited paid plan
	if err := testDB.SetPlan(&db.Plan{
		ID:      1,
		Name:    "Free",
		Default: true,
		Limits:  db.PlanLimits{MaxMembers: 2},
	}); err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
	if err := testDB.SetPlan(&db.Plan{
		ID:       2,
		Name:     "Club",
		Features: db.PlanFeatures{SMSNotifications: true, Announcements: true},
	}); err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}
}

func TestCanAddMember(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	setupPlans(t)
	s := New(&Config{DB: testDB})
	// the default plan allows two members
	org := &db.Organization{Counters: db.OrganizationCounters{Members: 1}}
	ok, err := s.CanAddMember(org)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	org.Counters.Members = 2
	ok, err = s.CanAddMember(org)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
	// the paid plan has no member limit
	org.Subscription = db.OrganizationSubscription{PlanID: 2, Active: true}
	org.Counters.Members = 5000
	ok, err = s.CanAddMember(org)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}

func TestPlanFeatures(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	setupPlans(t)
	s := New(&Config{DB: testDB})
	// the free plan has no SMS and no announcements
	org := &db.Organization{}
	c.Assert(s.HasSMSNotifications(org), qt.IsFalse)
	c.Assert(s.HasAnnouncements(org), qt.IsFalse)
	// the paid plan has both
	org.Subscription = db.OrganizationSubscription{PlanID: 2, Active: true}
	c.Assert(s.HasSMSNotifications(org), qt.IsTrue)
	c.Assert(s.HasAnnouncements(org), qt.IsTrue)
	// an inactive subscription falls back to the default plan
	org.Subscription.Active = false
	c.Assert(s.HasSMSNotifications(org), qt.IsFalse)
}
