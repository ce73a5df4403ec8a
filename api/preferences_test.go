package api

import (
	"encoding/json"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/clubhub/club-backend/db"
)

func TestPreferencesHandlers(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "prefs-club")
	member := testCreateMember(t, org.ID, "prefs@example.com")

	// a member without stored preferences gets the all-enabled defaults
	resp, code := testRequest(t, http.MethodGet, testToken, nil,
		"organizations", org.Slug, "members", member.ID.Hex(), "preferences")
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))
	var prefs db.NotificationPreferences
	c.Assert(json.Unmarshal(resp, &prefs), qt.IsNil)
	c.Assert(prefs.TrainingEmail, qt.IsTrue)
	c.Assert(prefs.TrainingSMS, qt.IsTrue)
	c.Assert(prefs.AnnouncementEmail, qt.IsTrue)
	c.Assert(prefs.AnnouncementSMS, qt.IsTrue)

	// store new preferences with SMS disabled
	update := &PreferencesRequest{
		TrainingEmail:     true,
		RoleEmail:         true,
		AnnouncementEmail: true,
	}
	resp, code = testRequest(t, http.MethodPut, testToken, update,
		"organizations", org.Slug, "members", member.ID.Hex(), "preferences")
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))

	// the stored record replaces the defaults
	resp, code = testRequest(t, http.MethodGet, testToken, nil,
		"organizations", org.Slug, "members", member.ID.Hex(), "preferences")
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(json.Unmarshal(resp, &prefs), qt.IsNil)
	c.Assert(prefs.TrainingEmail, qt.IsTrue)
	c.Assert(prefs.TrainingSMS, qt.IsFalse)
	c.Assert(prefs.RoleSMS, qt.IsFalse)
	c.Assert(prefs.AnnouncementSMS, qt.IsFalse)

	// unknown member
	_, code = testRequest(t, http.MethodGet, testToken, nil,
		"organizations", org.Slug, "members", "deadbeefdeadbeefdeadbeef", "preferences")
	c.Assert(code, qt.Equals, http.StatusNotFound)
}
