package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/session"
	"github.com/spf13/cobra"
)

func newRegisterCmd(opts *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.email == "" || opts.password == "" {
				return errors.New("--email and --password are required")
			}
			anon := *opts
			anon.email, anon.password, anon.token = "", "", ""
			a, err := newApp(cmd.Context(), cmd, &anon)
			if err != nil {
				return err
			}
			if err := a.session.Register(cmd.Context(), name, opts.email, opts.password); err != nil {
				return err
			}
			a.printf("%s\n", a.session.Token())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.email == "" || opts.password == "" {
				return errors.New("--email and --password are required")
			}
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			a.printf("%s\n", a.session.Token())
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List top-level comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			if err := a.store.SetSortBy(cmd.Context(), models.SortMode(sortBy)); err != nil {
				return err
			}
			a.renderList()
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(models.SortTop), "order: top or new")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a comment with its replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommentID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			f := a.stack.Push(id)
			if err := f.Load(cmd.Context()); err != nil {
				return err
			}
			a.renderFrame(f.Snapshot())
			return nil
		},
	}
}

func newPostCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "post <text>",
		Short: "Post a top-level comment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			if err := a.store.Create(cmd.Context(), strings.Join(args, " "), nil); err != nil {
				return err
			}
			a.renderList()
			return nil
		},
	}
}

func newReplyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <id> <text>",
		Short: "Reply to a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommentID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			if err := a.store.Create(cmd.Context(), strings.Join(args[1:], " "), &id); err != nil {
				return err
			}
			a.printf("replied to #%d\n", id)
			return nil
		},
	}
}

func newUpvoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upvote <id>",
		Short: "Upvote a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommentID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			upvotes, err := a.client.UpvoteComment(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.printf("#%d now has %d upvotes\n", id, upvotes)
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your comments (admins may delete any)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCommentID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			if _, ok := a.session.Viewer().(session.Anonymous); ok {
				return errors.New("sign in to delete comments")
			}
			if err := a.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.printf("deleted #%d\n", id)
			return nil
		},
	}
}

func parseCommentID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid comment id %q", s)
	}
	return uint(id), nil
}
