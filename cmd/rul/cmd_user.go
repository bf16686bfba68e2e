package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OldStager01/dpf-rul/internal/auth"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
	"github.com/OldStager01/dpf-rul/pkg/validation"
)

var userFlags struct {
	username string
	password string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API analysts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an analyst account",
	RunE:  runUserCreate,
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&userFlags.username, "username", "", "analyst username (required)")
	f.StringVar(&userFlags.password, "password", "", "analyst password (required)")

	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	username := validation.SanitizeString(userFlags.username)
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}
	if err := validation.ValidatePassword(userFlags.password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(userFlags.password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	user, err := queries.NewUserRepository(db.DB).Create(ctx, username, hash)
	if err != nil {
		return fmt.Errorf("failed to create analyst: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created analyst %q (id %d)\n", user.Username, user.ID)
	return nil
}
