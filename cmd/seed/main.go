package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"eventflow/internal/config"
	"eventflow/internal/db"
	"eventflow/internal/model"
	"eventflow/internal/repository"
	"eventflow/internal/service"
)

type staffAccount struct {
	Email string
	Name  string
	Role  model.Role
}

var reviewers = []staffAccount{
	{Email: "category@reviewer.com", Name: "Category Reviewer", Role: model.RoleCategoryReviewer},
	{Email: "budget@reviewer.com", Name: "Budget Reviewer", Role: model.RoleBudgetReviewer},
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Provision reviewer and admin accounts",
		SilenceUsage: true,
	}
	root.AddCommand(newReviewersCmd(), newAdminCmd())
	return root
}

func newReviewersCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reviewers",
		Short: "Create the category and budget reviewer accounts if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := openUserService()
			if err != nil {
				return err
			}
			for _, acct := range reviewers {
				if err := ensure(cmd.Context(), users, acct, password); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "reviewer123", "password for the seeded reviewer accounts")
	return cmd
}

func newAdminCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
	)
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an admin account if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := openUserService()
			if err != nil {
				return err
			}
			return ensure(cmd.Context(), users, staffAccount{Email: email, Name: name, Role: model.RoleAdmin}, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@events.local", "admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func openUserService() (service.UserService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}
	log.Println("Database migrations completed")

	return service.NewUserService(repository.NewUserRepository(gormDB), nil), nil
}

func ensure(ctx context.Context, users service.UserService, acct staffAccount, password string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	created, err := users.EnsureStaff(ctx, acct.Email, acct.Name, password, acct.Role)
	if err != nil {
		return fmt.Errorf("seed %s: %w", acct.Email, err)
	}
	if created {
		log.Printf("Created %s account %s", acct.Role, acct.Email)
	} else {
		log.Printf("Skipped %s: already exists", acct.Email)
	}
	return nil
}
