package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tbxark/homi/agent"
	"github.com/tbxark/homi/auth"
	"github.com/tbxark/homi/types"
)

func newRequestsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect saved requests",
	}
	cmd.AddCommand(newRequestsListCmd(root), newRequestsStatusCmd(root))
	return cmd
}

func newRequestsListCmd(root *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the requests of a user, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := agent.AnonymousUserID
			if email != "" {
				user, err := auth.UserForEmail(email)
				if err != nil {
					return err
				}
				userID = user.ID
			}
			requests, err := openRequestStore(root.conf)
			if err != nil {
				return err
			}
			defer closeStore(requests)

			list, err := requests.List(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("list requests: %w", err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests yet.")
				return nil
			}
			return writeRequestTable(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (defaults to anonymous requests)")
	return cmd
}

func newRequestsStatusCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <matched|booked|cancelled>",
		Short: "Move a request to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := types.RequestStatus(args[1])
			if status == types.StatusPending {
				return errors.New("a request cannot move back to pending")
			}
			requests, err := openRequestStore(root.conf)
			if err != nil {
				return err
			}
			defer closeStore(requests)

			req, err := requests.Update(cmd.Context(), args[0], status)
			if err != nil {
				return fmt.Errorf("update request: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRequest(req))
			return nil
		},
	}
	return cmd
}
