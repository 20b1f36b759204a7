package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newCreateCommand(ctx),
		newRefreshCommand(ctx),
		newBackfillCommand(ctx),
		newCheckCommand(ctx),
		newCheckAllCommand(ctx),
		newClearUnseenCommand(ctx),
	}
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Start tracking a title and import every chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Engine.CreateTitle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeResult(res))
			return nil
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <title>",
		Short: "Replace every chapter of a title with a fresh import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Engine.RefreshTitle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeResult(res))
			return nil
		},
	}
}

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var start, end, offset int

	cmd := &cobra.Command{
		Use:   "backfill <title>",
		Short: "Re-probe a chapter range with an explicit offset and append what is found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Engine.BackfillRange(cmd.Context(), args[0], start, end, offset)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeResult(res))
			return nil
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "First canonical chapter number")
	cmd.Flags().IntVar(&end, "end", 0, "Last canonical chapter number")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset added to the source index")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <title>",
		Short: "Probe a title for chapters after the latest stored one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Engine.CheckIncremental(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeResult(res))
			return nil
		},
	}
}

func newCheckAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check-all",
		Short: "Run a catch-up check on every tracked title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			results, err := a.Engine.RunCheck(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), renderCheckResults(results))
			return err
		},
	}
}

func newClearUnseenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-unseen <title>",
		Short: "Acknowledge the new chapters of a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Engine.ClearUnseen(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: new chapter flag cleared\n", args[0])
			return nil
		},
	}
}
