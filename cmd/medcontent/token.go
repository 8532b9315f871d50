package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/medcontent/internal/config"
	"github.com/jonathan/medcontent/internal/server"
)

var tokenOwner string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an owner (development)",
	Long:  "Sign a JWT with the configured JWT_SECRET for calling the API locally. Production tokens come from the identity provider.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "Owner UUID (a new one is generated when empty)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Auth.RequireSecret(); err != nil {
		return err
	}

	ownerID := uuid.New()
	if tokenOwner != "" {
		ownerID, err = uuid.Parse(tokenOwner)
		if err != nil {
			return fmt.Errorf("invalid --owner: %w", err)
		}
	}

	token, err := server.NewJWTService(&cfg.Auth).GenerateToken(ownerID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "owner: %s\ntoken: %s\n", ownerID, token)
	return nil
}
