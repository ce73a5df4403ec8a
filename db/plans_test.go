package db

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPlans(t *testing.T) {
	defer func() {
		if err := testDB.Reset(); err != nil {
			t.Error(err)
		}
	}()
	c := qt.New(t)
	// no plans yet
	_, err := testDB.Plan(1)
	c.Assert(err, qt.Equals, ErrNotFound)
	_, err = testDB.DefaultPlan()
	c.Assert(err, qt.Equals, ErrNotFound)
	// store a default and a paid plan
	c.Assert(testDB.SetPlan(&Plan{
		ID:      1,
		Name:    "Free",
		Default: true,
		Limits:  PlanLimits{MaxMembers: 50, MaxAdmins: 2},
	}), qt.IsNil)
	c.Assert(testDB.SetPlan(&Plan{
		ID:            2,
		Name:          "Club",
		StripePriceID: "price_club",
		Features:      PlanFeatures{SMSNotifications: true, Announcements: true},
	}), qt.IsNil)
	// lookups
	plan, err := testDB.Plan(2)
	c.Assert(err, qt.IsNil)
	c.Assert(plan.Name, qt.Equals, "Club")
	plan, err = testDB.DefaultPlan()
	c.Assert(err, qt.IsNil)
	c.Assert(plan.ID, qt.Equals, uint64(1))
	plan, err = testDB.PlanByStripePriceID("price_club")
	c.Assert(err, qt.IsNil)
	c.Assert(plan.ID, qt.Equals, uint64(2))
	plans, err := testDB.Plans()
	c.Assert(err, qt.IsNil)
	c.Assert(plans, qt.HasLen, 2)
	// updating a plan keeps the ID
	plan.Name = "Club Plus"
	c.Assert(testDB.SetPlan(plan), qt.IsNil)
	plan, err = testDB.Plan(2)
	c.Assert(err, qt.IsNil)
	c.Assert(plan.Name, qt.Equals, "Club Plus")
}
