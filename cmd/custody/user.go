package main

import (
	"errors"
	"fmt"
	"os"

	"custody-go/internal/app"
	"custody-go/internal/database/sqlc"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

// readNewPassword asks for a password twice unless $CUSTODY_PASSWORD is set.
func readNewPassword() (string, error) {
	pw, err := readSecret("CUSTODY_PASSWORD", "Password: ")
	if err != nil {
		return "", err
	}
	if os.Getenv("CUSTODY_PASSWORD") != "" {
		return pw, nil
	}
	again, err := readSecret("CUSTODY_PASSWORD", "Repeat password: ")
	if err != nil {
		return "", err
	}
	if again != pw {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

var userAddCmd = &cobra.Command{
	Use:   "add EMAIL",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		nic, _ := cmd.Flags().GetString("nic")
		admin, _ := cmd.Flags().GetBool("admin")
		withPassword, _ := cmd.Flags().GetBool("password")

		var password string
		if withPassword {
			var err error
			if password, err = readNewPassword(); err != nil {
				return err
			}
		}

		a, err := newApp(cmd, "AddUser")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.AddUser(cmd.Context(), args[0], name, nic, password, admin)
		if err != nil {
			return fmt.Errorf("adding user: %w", err)
		}
		printUser(user)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show EMAIL",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ShowUser")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.ShowUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printUser(user)
		return nil
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Check a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readSecret("CUSTODY_PASSWORD", "Password: ")
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Login")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Authenticated as %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Set the password of the --as user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ChangePassword")
		if err != nil {
			return err
		}
		defer a.Close()

		as, _ := cmd.Flags().GetString("as")
		if as == "" {
			return app.ErrNoActor
		}
		user, err := a.ShowUser(cmd.Context(), as)
		if err != nil {
			return err
		}
		var current string
		if user.PasswordHash.Valid {
			if current, err = readSecret("CUSTODY_CURRENT_PASSWORD", "Current password: "); err != nil {
				return err
			}
		}
		next, err := readNewPassword()
		if err != nil {
			return err
		}
		if err := a.ChangePassword(cmd.Context(), current, next); err != nil {
			return fmt.Errorf("changing password: %w", err)
		}
		fmt.Println("Password changed.")
		return nil
	},
}

func printUser(u *sqlc.User) {
	fmt.Printf("ID:        %s\n", u.ID)
	fmt.Printf("Email:     %s\n", u.Email)
	if u.Name.Valid {
		fmt.Printf("Name:      %s\n", u.Name.String)
	}
	fmt.Printf("Role:      %s\n", u.Role)
	if u.PasswordHash.Valid {
		fmt.Println("Password:  set")
	}
	if u.Anonymous {
		fmt.Println("Anonymous: yes")
	}
}

func init() {
	userCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().String("nic", "", "National identity number")
	userAddCmd.Flags().Bool("admin", false, "Grant the administrator role")
	userAddCmd.Flags().Bool("password", false, "Set a login password (prompted, or $CUSTODY_PASSWORD)")
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userLoginCmd)
	userCmd.AddCommand(userPasswdCmd)
}
