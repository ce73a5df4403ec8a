// Package test provides testing utilities for the club backend service,
// including test containers for MongoDB and a mail catcher.
package test

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.vocdoni.io/dvote/util"
)

// MongoPort is the port exposed by the MongoDB test container.
const MongoPort = "27017"

// StartMongoContainer starts a single-node MongoDB replica set for testing.
// A replica set is required because the change feed tests rely on change
// streams, which plain standalone MongoDB does not support.
func StartMongoContainer(ctx context.Context) (testcontainers.Container, error) {
	exposedPort := fmt.Sprintf("%s/tcp", MongoPort)
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "mongo:7",
				ExposedPorts: []string{exposedPort},
				Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
				WaitingFor:   wait.ForListeningPort(nat.Port(exposedPort)),
			},
			Started: true,
		})
	if err != nil {
		return nil, err
	}
	if err := initReplicaSet(ctx, container); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return container, nil
}

// initReplicaSet initiates the replica set and waits for the node to become
// primary.
func initReplicaSet(ctx context.Context, container testcontainers.Container) error {
	if code, _, err := container.Exec(ctx,
		[]string{"mongosh", "--quiet", "--eval", "rs.initiate()"}); err != nil || code != 0 {
		return fmt.Errorf("could not initiate replica set (exit %d): %w", code, err)
	}
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		code, _, err := container.Exec(ctx,
			[]string{"mongosh", "--quiet", "--eval", "if (!db.hello().isWritablePrimary) quit(1)"})
		if err == nil && code == 0 {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("replica set did not become primary in time")
}

// MongoConnectionString returns the connection string of the containerized
// MongoDB, suitable for a direct connection to the single-node replica set.
func MongoConnectionString(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, nat.Port(MongoPort))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port()), nil
}

// RandomDatabaseName returns a random database name, so that concurrent test
// packages sharing a container never collide.
func RandomDatabaseName() string {
	return fmt.Sprintf("test_%s", util.RandomHex(8))
}
