package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var permCmd = &cobra.Command{
	Use:   "perm",
	Short: "Manage collection permissions",
}

var permAddCmd = &cobra.Command{
	Use:   "add COLLECTION EMAIL KIND",
	Short: "Grant read, write or view access",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "AddPermission")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddPermission(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("Granted %s on %s to %s\n", args[2], args[0], args[1])
		return nil
	},
}

var permRemoveCmd = &cobra.Command{
	Use:   "remove COLLECTION EMAIL KIND",
	Short: "Revoke a grant made by the acting user",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RemovePermission")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemovePermission(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("Revoked %s on %s from %s\n", args[2], args[0], args[1])
		return nil
	},
}

var permListCmd = &cobra.Command{
	Use:   "list COLLECTION",
	Short: "List grants on a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListPermissions")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListPermissions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No grants.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-5s  %-30s  granted by %s on %s\n", e.Kind, e.User.Email, e.GrantedBy.Email, formatTime(e.GrantedAt))
		}
		return nil
	},
}

func init() {
	permCmd.AddCommand(permAddCmd)
	permCmd.AddCommand(permRemoveCmd)
	permCmd.AddCommand(permListCmd)
}
