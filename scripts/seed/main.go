// Seed creates the default user and starter todos. Run from project root: go run ./scripts/seed
package main

import (
	"context"
	"fmt"
	"os"

	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/identity"
	"todo-api/internal/seed"
)

func main() {
	ctx := context.Background()
	cfg := config.Get()

	orm := database.ORM(ctx)
	if orm == nil {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set or DB connection failed")
		os.Exit(1)
	}
	if err := database.MigrateOrCreateSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}
	if err := seed.Run(ctx, orm, identity.NewStore(orm, cfg.PasswordCost)); err != nil {
		fmt.Fprintln(os.Stderr, "Seed failed:", err)
		os.Exit(1)
	}
	fmt.Printf("Done: user %q and %d starter todos\n", seed.DefaultUsername, len(seed.Todos()))
}
