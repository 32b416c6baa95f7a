package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hongminglow/carecrate/internal/auth"
	"github.com/hongminglow/carecrate/internal/models"
)

// staffPasswordEnv lets scripts avoid putting the password on the command line.
const staffPasswordEnv = "CARECRATE_STAFF_PASSWORD"

func newStaffCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newStaffAddCommand(opts))
	return cmd
}

func newStaffAddCommand(opts *RootOptions) *cobra.Command {
	var user models.StaffUser
	var password string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a staff account; the only way to create the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(staffPasswordEnv)
			}
			user.Username = strings.TrimSpace(user.Username)
			user.Email = strings.TrimSpace(user.Email)
			if user.Username == "" || user.Email == "" {
				return errors.New("--username and --email are required")
			}
			if !models.ValidRole(user.Role) {
				return fmt.Errorf("unknown role %q", user.Role)
			}
			if err := auth.ValidatePassword(password); err != nil {
				return err
			}
			if user.DisplayName == "" {
				user.DisplayName = user.Username
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = hash

			ctx := cmd.Context()
			_, store, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			created, err := store.CreateStaff(ctx, user)
			if err != nil {
				return fmt.Errorf("create staff %s: %w", user.Username, err)
			}
			text := fmt.Sprintf("created %s %s (id=%d)\n", created.Role, created.Username, created.ID)
			return opts.emit(cmd.OutOrStdout(), created, text)
		},
	}
	cmd.Flags().StringVar(&user.Username, "username", "", "login name")
	cmd.Flags().StringVar(&user.Email, "email", "", "email address")
	cmd.Flags().StringVar(&user.DisplayName, "name", "", "display name shown in the navbar")
	cmd.Flags().StringVar(&user.Role, "role", models.VolunteerRole, "role (admin|volunteer)")
	cmd.Flags().StringVar(&password, "password", "", "password (or set "+staffPasswordEnv+")")
	return cmd
}
