package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clubhub/club-backend/db"
	"github.com/clubhub/club-backend/notifications/dispatch"
	"github.com/clubhub/club-backend/notifications/outbox"
	"github.com/clubhub/club-backend/subscriptions"
	"github.com/clubhub/club-backend/test"
)

const (
	testSecret = "super-secret"
	testHost   = "0.0.0.0"
	testPort   = 7788

	testOfficerID  = "officer@club.test"
	testMemberName = "Kari Nordmann"
	testPhone      = "+4798765432"

	// plan fixtures stored by TestMain
	testDefaultPlanID = 1
	testLimitedPlanID = 2
)

// testDB is the MongoDB storage for the tests. Make it global so it can be
// accessed by the tests directly.
var testDB *db.MongoStorage

// testAPI is the running API instance, used by the tests to mint tokens.
var testAPI *API

// testPrimary is the scripted primary provider behind the dispatcher.
var testPrimary *stubPrimary

// testOutbox is the outbox the API under test enqueues into.
var testOutbox *outbox.Outbox

// testToken is a valid token for the test officer, minted once in TestMain.
var testToken string

// stubPrimary implements dispatch.Primary with a switchable outcome, so the
// tests can exercise both delivery results through the real dispatcher.
type stubPrimary struct {
	mu   sync.Mutex
	fail bool
	sent []*dispatch.Request
}

func (p *stubPrimary) Name() string        { return "stub" }
func (p *stubPrimary) Endpoints() []string { return []string{"https://stub.local"} }

func (p *stubPrimary) Send(_ context.Context, _ string, req *dispatch.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		// a 422 is not fallback eligible, so the dispatch fails outright
		return "", &dispatch.StatusError{Status: 422, Body: "rejected"}
	}
	p.sent = append(p.sent, req)
	return fmt.Sprintf("msg-%d", len(p.sent)), nil
}

func (p *stubPrimary) setFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

// testURL helper function returns the full URL for the given path using the
// test host and port.
func testURL(path string) string {
	return fmt.Sprintf("http://%s:%d%s", testHost, testPort, path)
}

// testRequest helper function sends a request to the API server, with the
// given method, token, body and path parts, and returns the response body and
// status code.
func testRequest(t *testing.T, method, token string, jsonBody any, urlPath ...string) ([]byte, int) {
	t.Helper()
	body, err := json.Marshal(jsonBody)
	qt.Assert(t, err, qt.IsNil)
	url := testURL("/" + strings.Join(urlPath, "/"))
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	qt.Assert(t, err, qt.IsNil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	qt.Assert(t, err, qt.IsNil)
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	qt.Assert(t, err, qt.IsNil)
	return respBody, resp.StatusCode
}

// pingAPI helper function pings the API endpoint and retries the request
// until the retries limit is reached.
func pingAPI(endpoint string, retries int) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	var pingErr error
	for i := 0; i < retries; i++ {
		var resp *http.Response
		if resp, pingErr = http.DefaultClient.Do(req); pingErr == nil {
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			pingErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		time.Sleep(time.Second)
	}
	return pingErr
}

// testCreateOrganization stores an organization with the given slug,
// subscribed to the default plan.
func testCreateOrganization(t *testing.T, slug string) *db.Organization {
	t.Helper()
	org := &db.Organization{
		Name:      "Oslo Pistol Club",
		Slug:      slug,
		Active:    true,
		CreatedAt: time.Now(),
		Subscription: db.OrganizationSubscription{
			PlanID: testDefaultPlanID,
			Active: true,
		},
	}
	id, err := testDB.SetOrganization(org)
	qt.Assert(t, err, qt.IsNil)
	org.ID = id
	return org
}

// testCreateMember stores an approved, active member of the organization.
func testCreateMember(t *testing.T, orgID primitive.ObjectID, email string) *db.Member {
	t.Helper()
	member := &db.Member{
		OrgID:     orgID,
		Email:     email,
		FullName:  testMemberName,
		Phone:     testPhone,
		Role:      db.MemberRoleMember,
		Active:    true,
		Approved:  true,
		CreatedAt: time.Now(),
	}
	if _, err := testDB.SetMember(member); err != nil {
		t.Fatalf("failed to create member: %v", err)
	}
	return member
}

// waitForOutboxStatus polls the record until it reaches the wanted status or
// the deadline expires.
func waitForOutboxStatus(t *testing.T, id primitive.ObjectID, status db.OutboxStatus) *db.OutboxRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, err := testDB.OutboxRecord(id)
		if err == nil && record.Status == status {
			return record
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("outbox record %s did not reach status %s", id.Hex(), status)
	return nil
}

// TestMain starts the MongoDB container and the API server, backed by a
// scripted primary provider, before running the tests.
func TestMain(m *testing.M) {
	ctx := context.Background()
	// start a MongoDB container for testing
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
	// plan fixtures: a default plan with everything enabled and a limited
	// plan used by the limit and feature gate tests
	if err := testDB.SetPlan(&db.Plan{
		ID:      testDefaultPlanID,
		Name:    "Club",
		Default: true,
		Features: db.PlanFeatures{
			SMSNotifications: true,
			Announcements:    true,
		},
	}); err != nil {
		panic(err)
	}
	if err := testDB.SetPlan(&db.Plan{
		ID:     testLimitedPlanID,
		Name:   "Free",
		Limits: db.PlanLimits{MaxMembers: 1},
	}); err != nil {
		panic(err)
	}
	// dispatcher over the scripted primary, outbox worker on top of it
	testPrimary = &stubPrimary{}
	dispatcher := dispatch.New(&dispatch.Config{Primary: testPrimary})
	testOutbox = outbox.New(testDB, dispatcher)
	workerCtx, cancel := context.WithCancel(ctx)
	if err := testOutbox.Start(workerCtx); err != nil {
		panic(err)
	}
	subs := subscriptions.New(&subscriptions.Config{DB: testDB})
	// start the API
	testAPI = New(&Config{
		Host:          testHost,
		Port:          testPort,
		Secret:        testSecret,
		DB:            testDB,
		Dispatcher:    dispatcher,
		Outbox:        testOutbox,
		Subscriptions: subs,
		WebAppURL:     "https://app.clubhub.test",
	})
	testAPI.Start()
	// wait for the API to start
	if err := pingAPI(testURL(pingEndpoint), 5); err != nil {
		panic(err)
	}
	// mint a token for the test officer
	login, err := testAPI.makeToken(testOfficerID)
	if err != nil {
		panic(err)
	}
	testToken = login.Token
	code := m.Run()
	cancel()
	testDB.Close()
	if err := dbContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop MongoDB container: %v", err))
	}
	os.Exit(code)
}

func TestPingHandler(t *testing.T) {
	c := qt.New(t)
	_, code := testRequest(t, http.MethodGet, "", nil, "ping")
	c.Assert(code, qt.Equals, http.StatusOK)
}

func TestAuthenticationRequired(t *testing.T) {
	c := qt.New(t)
	org := testCreateOrganization(t, "auth-required-club")

	// protected routes reject requests without a token
	resp, code := testRequest(t, http.MethodGet, "", nil, "organizations", org.Slug, "members")
	c.Assert(code, qt.Equals, http.StatusUnauthorized, qt.Commentf("response: %s", resp))

	// and requests with a token signed with another secret
	other := New(&Config{Secret: "another-secret"})
	badLogin, err := other.makeToken(testOfficerID)
	c.Assert(err, qt.IsNil)
	_, code = testRequest(t, http.MethodGet, badLogin.Token, nil, "organizations", org.Slug, "members")
	c.Assert(code, qt.Equals, http.StatusUnauthorized)

	// a valid token passes
	_, code = testRequest(t, http.MethodGet, testToken, nil, "organizations", org.Slug, "members")
	c.Assert(code, qt.Equals, http.StatusOK)
}
