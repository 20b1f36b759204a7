package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xKaaZz/Waeleaks/internal/app"
)

func newCatalogCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newTitlesCommand(ctx),
		newChaptersCommand(ctx),
		newChapterCommand(ctx),
		newReadCommand(ctx, true),
		newReadCommand(ctx, false),
		newReadAllCommand(ctx, true),
		newReadAllCommand(ctx, false),
	}
}

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "titles",
		Short: "List tracked titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			titles, err := a.Catalog.ListTitles(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTitles(titles))
			return nil
		},
	}
}

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "chapters <title>",
		Short: "List the chapters of a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			title, err := a.Catalog.TitleByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			chapters, err := a.Catalog.ChaptersByTitle(cmd.Context(), title.ID)
			if err != nil {
				return err
			}

			var read []int64
			if strings.TrimSpace(username) != "" {
				user, err := a.Catalog.UserByName(cmd.Context(), username)
				if err != nil {
					return err
				}
				if read, err = a.Catalog.ReadChapterIDs(cmd.Context(), user.ID, title.ID); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderChapters(chapters, read))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Show read state for this user")
	return cmd
}

func newChapterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chapter <id>",
		Short: "Show one chapter with its pages and neighbours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			view, err := a.Catalog.Chapter(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderChapter(view))
			return nil
		},
	}
}

func newReadCommand(ctx *commandContext, read bool) *cobra.Command {
	var username string

	use, short := "read <chapter-id>", "Mark a chapter read"
	if !read {
		use, short = "unread <chapter-id>", "Mark a chapter unread"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			user, err := a.Catalog.UserByName(cmd.Context(), username)
			if err != nil {
				return err
			}
			if read {
				err = a.Catalog.MarkRead(cmd.Context(), user.ID, chapterID)
			} else {
				err = a.Catalog.UnmarkRead(cmd.Context(), user.ID, chapterID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chapter %d %s for %s\n", chapterID, readLabel(read), user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Reader username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newReadAllCommand(ctx *commandContext, read bool) *cobra.Command {
	var username string

	use, short := "read-all <title>", "Mark every chapter of a title read"
	if !read {
		use, short = "unread-all <title>", "Mark every chapter of a title unread"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			n, err := markAll(cmd.Context(), a, username, args[0], read)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d chapters of %s %s for %s\n", n, args[0], readLabel(read), username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Reader username")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func markAll(ctx context.Context, a *app.App, username, titleName string, read bool) (int64, error) {
	user, err := a.Catalog.UserByName(ctx, username)
	if err != nil {
		return 0, err
	}
	title, err := a.Catalog.TitleByName(ctx, titleName)
	if err != nil {
		return 0, err
	}
	if read {
		return a.Catalog.MarkAllRead(ctx, user.ID, title.ID)
	}
	return a.Catalog.UnmarkAllRead(ctx, user.ID, title.ID)
}

func readLabel(read bool) string {
	if read {
		return "marked read"
	}
	return "marked unread"
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
