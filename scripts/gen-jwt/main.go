// gen-jwt prints a bearer token for a user. With a database configured the user is looked
// up by name; otherwise a throwaway identity is used.
//
//	go run ./scripts/gen-jwt -username user
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"todo-api/internal/auth"
	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/identity"
	"todo-api/internal/models"
	"todo-api/internal/seed"
)

func main() {
	username := flag.String("username", seed.DefaultUsername, "username to mint a token for")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Get()
	issuer, err := auth.NewIssuer(cfg.Tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, "TOKENS_KEY must be set:", err)
		os.Exit(1)
	}

	u := &models.User{ID: uuid.NewString(), Username: *username}
	if cfg.DatabaseURL != "" {
		if orm := database.ORM(ctx); orm != nil {
			found, err := identity.NewStore(orm, cfg.PasswordCost).FindByName(ctx, *username)
			if err != nil {
				fmt.Fprintln(os.Stderr, "User lookup failed:", err)
				os.Exit(1)
			}
			u = found
		}
	}

	token, exp, err := issuer.Issue(u)
	if err != nil {
		panic(err)
	}
	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "expires", exp.Format("2006-01-02T15:04:05Z07:00"))
}
