package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dsas/internal/config"
	"dsas/internal/db"
	"dsas/internal/errors"
	"dsas/internal/model"
	"dsas/internal/repository"
	"dsas/internal/service"
)

// AdminOptions are the flags of the admin subcommand.
type AdminOptions struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dsas-seed",
		Short: "Seed the health record database",
	}
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func adminCmd() *cobra.Command {
	var opts AdminOptions
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create the admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			if err := db.Migrate(gormDB); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			creds, err := service.NewCredentialStore(repository.NewUserRepository(gormDB), cfg.BcryptCost)
			if err != nil {
				return err
			}
			return seedAdmin(cmd.Context(), creds, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "admin@dsas.com", "Admin email")
	cmd.Flags().StringVar(&opts.Username, "username", "admin", "Admin username")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Admin password")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "Admin", "Admin first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "User", "Admin last name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// seedAdmin creates the admin account. An existing account with the same
// email or username is left untouched.
func seedAdmin(ctx context.Context, creds service.CredentialStore, opts AdminOptions, out io.Writer) error {
	user, err := creds.Create(ctx, service.NewUser{
		Username:  opts.Username,
		Email:     opts.Email,
		Password:  opts.Password,
		Role:      model.RoleAdmin,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
	})
	if err != nil {
		if errors.Is(err, errors.ErrEmailTaken) || errors.Is(err, errors.ErrUsernameTaken) {
			fmt.Fprintln(out, "Admin user already exists")
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(out, "Admin user created: %s (%s)\n", user.Email, user.ID)
	return nil
}
