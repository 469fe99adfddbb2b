// Package seed creates the default account and starter todos on an empty database.
package seed

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todo-api/internal/identity"
	"todo-api/internal/models"
	"todo-api/internal/repository"
	"todo-api/pkg/logger"
)

// Default account.
const (
	DefaultUsername  = "user"
	DefaultPassword  = "P@ssw0rd!"
	DefaultEmail     = "user@Todo.DotNetSix"
	DefaultFirstName = "User"
	DefaultLastName  = "Todo"
)

// Todos returns the starter todos owned by the default user.
func Todos() []models.Todo {
	return []models.Todo{
		{Name: "Dog", Description: "Take the dog for a walk", Username: DefaultUsername},
		{Name: "Rubbish", Description: "Put the rubbish out", Username: DefaultUsername},
		{Name: "Boiler", Description: "Check the boiler's water pressure", Username: DefaultUsername},
		{Name: "Shopping list", Description: "Check the shopping list", Username: DefaultUsername},
		{Name: "Alarm clock", Description: "Set the alarm clock", Username: DefaultUsername},
	}
}

// Run creates the default user when missing and, when the todos table is empty, the
// starter todos. It is safe to run on every startup.
func Run(ctx context.Context, db *gorm.DB, users *identity.Store) error {
	if err := defaultUser(ctx, users); err != nil {
		return err
	}

	repo := repository.New[models.Todo](db)
	n, err := repo.Count(ctx, nil)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		for _, t := range Todos() {
			if err := txRepo.Add(ctx, &t, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed todos: %w", err)
	}
	logger.Info(ctx, "Seeded todos", "count", len(Todos()))
	return nil
}

func defaultUser(ctx context.Context, users *identity.Store) error {
	_, err := users.FindByName(ctx, DefaultUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, identity.ErrUserNotFound) {
		return err
	}
	u := &models.User{
		Username:  DefaultUsername,
		Email:     DefaultEmail,
		FirstName: DefaultFirstName,
		LastName:  DefaultLastName,
	}
	if err := users.Create(ctx, u, DefaultPassword); err != nil {
		return fmt.Errorf("could not create user %q: %w", DefaultUsername, err)
	}
	return nil
}
