// Package db selects and opens the credential store named by DATABASE_URL.
package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/infrastructure/db/mongo"
	"github.com/dweeb/marketplace/internal/infrastructure/db/postgres"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMongo    Driver = "mongo"
)

// DriverFor maps the URL scheme to a driver.
func DriverFor(databaseURL string) (Driver, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

// Open connects the credential store. Postgres schemas are migrated on open.
func Open(ctx context.Context, databaseURL, mongoDatabase string) (ports.CredentialStore, Driver, error) {
	driver, err := DriverFor(databaseURL)
	if err != nil {
		return nil, "", err
	}

	switch driver {
	case DriverMongo:
		client, database, err := mongo.Connect(ctx, mongo.Config{URI: databaseURL, Database: mongoDatabase})
		if err != nil {
			return nil, driver, err
		}
		return mongo.NewCredentialStore(client, database), driver, nil
	default:
		pg, err := postgres.Open(ctx, databaseURL)
		if err != nil {
			return nil, driver, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, driver, err
		}
		return postgres.NewCredentialStore(pg), driver, nil
	}
}
