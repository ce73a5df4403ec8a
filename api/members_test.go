package api

import (
	"encoding/json"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/clubhub/club-backend/db"
)

func TestRegisterMemberHandler(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "register-club")

	// registration is public, no token needed
	registerReq := &RegisterMemberRequest{
		Email:    "new.member@example.com",
		FullName: testMemberName,
		Phone:    "+47 98 76 54 32",
	}
	resp, code := testRequest(t, http.MethodPost, "", registerReq, "organizations", org.Slug, "register")
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))

	// the member is stored unapproved and active, with the phone sanitized
	member, err := testDB.MemberByEmail(org.ID, registerReq.Email)
	c.Assert(err, qt.IsNil)
	c.Assert(member.Approved, qt.IsFalse)
	c.Assert(member.Active, qt.IsTrue)
	c.Assert(member.Phone, qt.Equals, "+4798765432")
	c.Assert(member.Role, qt.Equals, db.MemberRoleMember)

	// a welcome email was queued for the new member
	records, err := testDB.OutboxRecords("", 100)
	c.Assert(err, qt.IsNil)
	found := false
	for _, record := range records {
		if record.Recipient.Email == registerReq.Email {
			found = true
			c.Assert(record.EmailSubject, qt.Not(qt.Equals), "")
		}
	}
	c.Assert(found, qt.IsTrue)

	// registering the same email again conflicts
	resp, code = testRequest(t, http.MethodPost, "", registerReq, "organizations", org.Slug, "register")
	c.Assert(code, qt.Equals, http.StatusConflict)
	c.Assert(string(resp), qt.Contains, "40901")

	// malformed email and missing name are rejected
	_, code = testRequest(t, http.MethodPost, "", &RegisterMemberRequest{
		Email:    "not-an-email",
		FullName: testMemberName,
	}, "organizations", org.Slug, "register")
	c.Assert(code, qt.Equals, http.StatusBadRequest)
	_, code = testRequest(t, http.MethodPost, "", &RegisterMemberRequest{
		Email: "missing.name@example.com",
	}, "organizations", org.Slug, "register")
	c.Assert(code, qt.Equals, http.StatusBadRequest)

	// invalid body is rejected
	resp, code = testRequest(t, http.MethodPost, "", "invalid body", "organizations", org.Slug, "register")
	c.Assert(code, qt.Equals, http.StatusBadRequest)
	c.Assert(string(resp), qt.Contains, "40002")

	// unknown organization slug
	_, code = testRequest(t, http.MethodPost, "", registerReq, "organizations", "no-such-club", "register")
	c.Assert(code, qt.Equals, http.StatusNotFound)
}

func TestRegisterMemberLimitReached(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "limited-club")
	org.Subscription.PlanID = testLimitedPlanID
	_, err := testDB.SetOrganization(org)
	c.Assert(err, qt.IsNil)

	// the limited plan allows a single member
	first := &RegisterMemberRequest{Email: "first@example.com", FullName: testMemberName}
	_, code := testRequest(t, http.MethodPost, "", first, "organizations", org.Slug, "register")
	c.Assert(code, qt.Equals, http.StatusOK)

	second := &RegisterMemberRequest{Email: "second@example.com", FullName: testMemberName}
	resp, code := testRequest(t, http.MethodPost, "", second, "organizations", org.Slug, "register")
	c.Assert(code, qt.Equals, http.StatusBadRequest)
	c.Assert(string(resp), qt.Contains, "40014")
}

func TestMembersHandler(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "members-club")
	approved := testCreateMember(t, org.ID, "approved@example.com")
	pending := &db.Member{
		OrgID:    org.ID,
		Email:    "pending@example.com",
		FullName: testMemberName,
		Role:     db.MemberRoleMember,
		Active:   true,
	}
	_, err := testDB.SetMember(pending)
	c.Assert(err, qt.IsNil)

	// full list
	resp, code := testRequest(t, http.MethodGet, testToken, nil, "organizations", org.Slug, "members")
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))
	var members MembersResponse
	c.Assert(json.Unmarshal(resp, &members), qt.IsNil)
	c.Assert(members.Members, qt.HasLen, 2)

	// approved only
	resp, code = testRequest(t, http.MethodGet, testToken, nil, "organizations", org.Slug, "members?approved=true")
	c.Assert(code, qt.Equals, http.StatusOK)
	c.Assert(json.Unmarshal(resp, &members), qt.IsNil)
	c.Assert(members.Members, qt.HasLen, 1)
	c.Assert(members.Members[0].Email, qt.Equals, approved.Email)

	// single member
	resp, code = testRequest(t, http.MethodGet, testToken, nil, "organizations", org.Slug, "members", approved.ID.Hex())
	c.Assert(code, qt.Equals, http.StatusOK)
	var info MemberInfo
	c.Assert(json.Unmarshal(resp, &info), qt.IsNil)
	c.Assert(info.FullName, qt.Equals, testMemberName)

	// a member of another organization is not reachable through this slug
	otherOrg := testCreateOrganization(t, "members-other-club")
	stranger := testCreateMember(t, otherOrg.ID, "stranger@example.com")
	_, code = testRequest(t, http.MethodGet, testToken, nil, "organizations", org.Slug, "members", stranger.ID.Hex())
	c.Assert(code, qt.Equals, http.StatusNotFound)
}

func TestApproveMemberHandler(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "approve-club")
	member := &db.Member{
		OrgID:    org.ID,
		Email:    "applicant@example.com",
		FullName: testMemberName,
		Role:     db.MemberRoleMember,
		Active:   true,
	}
	_, err := testDB.SetMember(member)
	c.Assert(err, qt.IsNil)

	_, code := testRequest(t, http.MethodPost, testToken, nil,
		"organizations", org.Slug, "members", member.ID.Hex(), "approve")
	c.Assert(code, qt.Equals, http.StatusOK)

	stored, err := testDB.Member(member.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Approved, qt.IsTrue)

	// the approval email was queued
	records, err := testDB.OutboxRecords("", 100)
	c.Assert(err, qt.IsNil)
	found := false
	for _, record := range records {
		if record.Recipient.Email == member.Email {
			found = true
		}
	}
	c.Assert(found, qt.IsTrue)

	// approving again is a no-op
	_, code = testRequest(t, http.MethodPost, testToken, nil,
		"organizations", org.Slug, "members", member.ID.Hex(), "approve")
	c.Assert(code, qt.Equals, http.StatusOK)
}

func TestUpdateMemberRoleHandler(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "role-club")
	member := testCreateMember(t, org.ID, "promotable@example.com")

	resp, code := testRequest(t, http.MethodPut, testToken, &UpdateRoleRequest{Role: string(db.MemberRoleRangeOfficer)},
		"organizations", org.Slug, "members", member.ID.Hex(), "role")
	c.Assert(code, qt.Equals, http.StatusOK, qt.Commentf("response: %s", resp))

	stored, err := testDB.Member(member.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Role, qt.Equals, db.MemberRoleRangeOfficer)

	// unknown roles are rejected
	resp, code = testRequest(t, http.MethodPut, testToken, &UpdateRoleRequest{Role: "president"},
		"organizations", org.Slug, "members", member.ID.Hex(), "role")
	c.Assert(code, qt.Equals, http.StatusBadRequest)
	c.Assert(string(resp), qt.Contains, "40008")
}

func TestDeactivateAndDeleteMemberHandlers(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "deactivate-club")
	member := testCreateMember(t, org.ID, "leaving@example.com")

	_, code := testRequest(t, http.MethodPost, testToken, nil,
		"organizations", org.Slug, "members", member.ID.Hex(), "deactivate")
	c.Assert(code, qt.Equals, http.StatusOK)

	stored, err := testDB.Member(member.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Active, qt.IsFalse)

	_, code = testRequest(t, http.MethodDelete, testToken, nil,
		"organizations", org.Slug, "members", member.ID.Hex())
	c.Assert(code, qt.Equals, http.StatusOK)

	_, err = testDB.Member(member.ID)
	c.Assert(err, qt.Equals, db.ErrNotFound)
}
