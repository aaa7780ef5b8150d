package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"huddle/internal/service"

	"github.com/spf13/cobra"
)

var promoteCmd = &cobra.Command{
	Use:   "promote <user_id>",
	Short: "Promote a user to admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(users *service.UserService) error {
			return runSetAdmin(cmd.Context(), users, cmd.OutOrStdout(), args[0], true)
		})
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote <user_id>",
	Short: "Revoke a user's admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(users *service.UserService) error {
			return runSetAdmin(cmd.Context(), users, cmd.OutOrStdout(), args[0], false)
		})
	},
}

var listAdminsCmd = &cobra.Command{
	Use:   "list-admins",
	Short: "List all admins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(users *service.UserService) error {
			return runListAdmins(cmd.Context(), users, cmd.OutOrStdout(), jsonOutput)
		})
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd, demoteCmd, listAdminsCmd)
}

func withUsers(ctx context.Context, fn func(*service.UserService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(ctx) }()
	return fn(service.NewUserService(store.Users))
}

func runSetAdmin(ctx context.Context, users *service.UserService, w io.Writer, userID string, admin bool) error {
	var err error
	if admin {
		_, err = users.Promote(ctx, userID)
	} else {
		_, err = users.Demote(ctx, userID)
	}
	if err != nil {
		return fmt.Errorf("update user %s: %w", userID, err)
	}

	profile, err := users.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if admin {
		_, err = fmt.Fprintf(w, "User %s (ID: %s) is now an admin\n", profile.Username, profile.ID)
	} else {
		_, err = fmt.Fprintf(w, "User %s (ID: %s) is no longer an admin\n", profile.Username, profile.ID)
	}
	return err
}

func runListAdmins(ctx context.Context, users *service.UserService, w io.Writer, asJSON bool) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		_, err := fmt.Fprintln(w, "No admins found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL")
	for _, u := range admins {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Username, u.Email)
	}
	return tw.Flush()
}
