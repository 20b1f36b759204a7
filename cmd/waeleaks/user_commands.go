package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage readers and their notification endpoints",
	}
	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newUserEndpointCommand(ctx))
	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Create a reader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			user, err := a.Catalog.CreateUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
}

func newUserEndpointCommand(ctx *commandContext) *cobra.Command {
	var recipient, credential string

	cmd := &cobra.Command{
		Use:   "endpoint <username>",
		Short: "Set the messaging endpoint used for new chapter notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Catalog.SetEndpoint(cmd.Context(), args[0], recipient, credential); err != nil {
				return err
			}
			state := "subscribed"
			if recipient == "" || credential == "" {
				state = "not subscribed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "endpoint updated for %s (%s)\n", args[0], state)
			return nil
		},
	}
	cmd.Flags().StringVar(&recipient, "recipient", "", "Recipient id (chat id)")
	cmd.Flags().StringVar(&credential, "credential", "", "Delivery credential (bot token)")
	return cmd
}
