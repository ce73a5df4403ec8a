package api

import (
	"encoding/json"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/clubhub/club-backend/db"
)

func TestOrganizationInfoHandler(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "info-club")

	resp, code := testRequest(t, http.MethodGet, testToken, nil, "organizations", org.Slug)
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))
	var info OrganizationInfo
	c.Assert(json.Unmarshal(resp, &info), qt.IsNil)
	c.Assert(info.Name, qt.Equals, org.Name)
	c.Assert(info.Slug, qt.Equals, org.Slug)
	c.Assert(info.PlanID, qt.Equals, uint64(testDefaultPlanID))

	_, code = testRequest(t, http.MethodGet, testToken, nil, "organizations", "no-such-club")
	c.Assert(code, qt.Equals, http.StatusNotFound)
}

func TestUpdateOrganizationHandler(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "branding-club")

	updateReq := &UpdateOrganizationRequest{
		Color:    "#aa00ff",
		LogoURL:  "https://cdn.example.com/logo.png",
		Timezone: "Europe/Oslo",
	}
	resp, code := testRequest(t, http.MethodPut, testToken, updateReq, "organizations", org.Slug)
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))

	stored, err := testDB.Organization(org.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Color, qt.Equals, updateReq.Color)
	c.Assert(stored.LogoURL, qt.Equals, updateReq.LogoURL)
	c.Assert(stored.Timezone, qt.Equals, updateReq.Timezone)
	// untouched fields survive a partial update
	c.Assert(stored.Name, qt.Equals, org.Name)

	// invalid color and logo URL are rejected
	_, code = testRequest(t, http.MethodPut, testToken,
		&UpdateOrganizationRequest{Color: "purple"}, "organizations", org.Slug)
	c.Assert(code, qt.Equals, http.StatusBadRequest)
	_, code = testRequest(t, http.MethodPut, testToken,
		&UpdateOrganizationRequest{LogoURL: "not a url"}, "organizations", org.Slug)
	c.Assert(code, qt.Equals, http.StatusBadRequest)
}

func TestAnnouncementHandler(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "announce-club")
	reach := testCreateMember(t, org.ID, "reachable@example.com")
	inactive := testCreateMember(t, org.ID, "inactive@example.com")
	c.Assert(testDB.SetMemberActive(inactive.ID, false), qt.IsNil)
	optedOut := testCreateMember(t, org.ID, "opted.out@example.com")
	c.Assert(testDB.SetNotificationPreferences(&db.NotificationPreferences{
		MemberID:      optedOut.ID,
		TrainingEmail: true,
		TrainingSMS:   true,
		RoleEmail:     true,
		RoleSMS:       true,
	}), qt.IsNil)

	announcement := &AnnouncementRequest{
		Title:   "Range closed",
		Message: "The range is closed next Saturday for maintenance.",
	}
	resp, code := testRequest(t, http.MethodPost, testToken, announcement,
		"organizations", org.Slug, "announcements")
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))
	var result AnnouncementResponse
	c.Assert(json.Unmarshal(resp, &result), qt.IsNil)
	// only the reachable member is queued, the inactive and the opted out
	// ones are skipped
	c.Assert(result.Queued, qt.Equals, 1)
	c.Assert(result.Skipped, qt.Equals, 2)

	// the member got both an email and an SMS record
	records, err := testDB.OutboxRecords("", 100)
	c.Assert(err, qt.IsNil)
	emails, sms := 0, 0
	for _, record := range records {
		switch {
		case record.Recipient.Email == reach.Email:
			emails++
		case record.Recipient.Number == reach.Phone && record.SMSMessage != "":
			sms++
			c.Assert(record.SMSMessage, qt.Contains, announcement.Title)
		}
	}
	c.Assert(emails, qt.Equals, 1)
	c.Assert(sms, qt.Equals, 1)

	// a missing title is rejected
	_, code = testRequest(t, http.MethodPost, testToken,
		&AnnouncementRequest{Message: "no title"}, "organizations", org.Slug, "announcements")
	c.Assert(code, qt.Equals, http.StatusBadRequest)
}

func TestAnnouncementPlanGate(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "gated-club")
	org.Subscription.PlanID = testLimitedPlanID
	_, err := testDB.SetOrganization(org)
	c.Assert(err, qt.IsNil)

	resp, code := testRequest(t, http.MethodPost, testToken,
		&AnnouncementRequest{Title: "Hello", Message: "World"},
		"organizations", org.Slug, "announcements")
	c.Assert(code, qt.Equals, http.StatusBadRequest)
	c.Assert(string(resp), qt.Contains, "40016")
}

func TestPlansHandler(t *testing.T) {
	c := qt.New(t)

	// plans are public
	resp, code := testRequest(t, http.MethodGet, "", nil, "plans")
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))
	var plans PlansResponse
	c.Assert(json.Unmarshal(resp, &plans), qt.IsNil)
	c.Assert(len(plans.Plans) >= 2, qt.IsTrue)
	var defaultPlan *PlanInfo
	for _, plan := range plans.Plans {
		if plan.Default {
			defaultPlan = plan
		}
	}
	c.Assert(defaultPlan, qt.Not(qt.IsNil))
	c.Assert(defaultPlan.ID, qt.Equals, uint64(testDefaultPlanID))
	c.Assert(defaultPlan.Features.Announcements, qt.IsTrue)
}
