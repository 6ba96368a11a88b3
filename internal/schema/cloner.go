// Package schema clones the tenant template schema into newly provisioned
// tenant databases. The template is a versioned, embedded migration set:
// cloning copies structure, never rows.
package schema

import (
	"context"
	"embed"
	"fmt"

	"github.com/view360/provisioning/internal/store"
)

//go:embed migrations/*.sql
var templateFS embed.FS

// TemplateName identifies the embedded tenant template schema.
const TemplateName = "tenant_template"

// Cloner copies a reference schema's structure into a destination database.
type Cloner interface {
	CloneSchema(ctx context.Context, sourceSchema, destDB string) error
}

// MigrateCloner implements Cloner by applying the embedded template
// migration set to the destination database.
type MigrateCloner struct {
	dsn func(dbName string) string
}

// NewMigrateCloner creates a Cloner that resolves destination databases
// through the given DSN builder (typically store.TenantConnector.DSN).
func NewMigrateCloner(dsn func(dbName string) string) *MigrateCloner {
	return &MigrateCloner{dsn: dsn}
}

func (c *MigrateCloner) CloneSchema(ctx context.Context, sourceSchema, destDB string) error {
	if sourceSchema != TemplateName {
		return fmt.Errorf("unknown source schema %q", sourceSchema)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := store.RunMigrationsFS(templateFS, "migrations", c.dsn(destDB)); err != nil {
		return fmt.Errorf("clone schema into %s: %w", destDB, err)
	}
	return nil
}

// Compile-time check that MigrateCloner implements Cloner.
var _ Cloner = (*MigrateCloner)(nil)
