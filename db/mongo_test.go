package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/clubhub/club-backend/test"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testDB *MongoStorage

const (
	testOrgName     = "Oslo Pistol Club"
	testOrgSlug     = "oslo-pistol-club"
	testMemberEmail = "member@example.com"
	testMemberName  = "Kari Nordmann"
	testPhone       = "+4798765432"
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	// start a MongoDB container for testing
	dbContainer, err := test.StartMongoContainer(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to start MongoDB container: %v", err))
	}
	// get the MongoDB connection string
	mongoURI, err := test.MongoConnectionString(ctx, dbContainer)
	if err != nil {
		panic(fmt.Sprintf("failed to get MongoDB endpoint: %v", err))
	}
	testDB, err = New(mongoURI, test.RandomDatabaseName())
	if err != nil {
		panic(fmt.Sprintf("failed to create new MongoDB connection: %v", err))
	}
	code := m.Run()
	// close the database connection
	testDB.Close()
	// stop the MongoDB container
	if err := dbContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop MongoDB container: %v", err))
	}
	os.Exit(code)
}

// newTestOrganization stores and returns a fresh organization.
func newTestOrganization(t *testing.T, slug string) *Organization {
	t.Helper()
	org := &Organization{
		Name:      testOrgName,
		Slug:      slug,
		Active:    true,
		CreatedAt: time.Now(),
	}
	id, err := testDB.SetOrganization(org)
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}
	org.ID = id
	return org
}

// newTestMember stores and returns a fresh member of the given organization.
func newTestMember(t *testing.T, orgID primitive.ObjectID, email string) *Member {
	t.Helper()
	member := &Member{
		OrgID:    orgID,
		Email:    email,
		FullName: testMemberName,
		Phone:    testPhone,
		Role:     MemberRoleMember,
		Active:   true,
		Approved: true,
	}
	if _, err := testDB.SetMember(member); err != nil {
		t.Fatalf("failed to create member: %v", err)
	}
	return member
}
