package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/session"
	"github.com/spf13/cobra"
)

const browseHelp = `commands:
  sort top|new        change the order of the list
  open <id>           open the replies of a comment
  back                go back one drawer
  close               close all drawers
  up <id>             upvote
  reply <id> <text>   reply to a comment
  post <text>         post a top-level comment
  rm <id>             delete a comment
  retry               reload the current view
  quit
`

func newBrowseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the discussion interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			return a.browse(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// browse reads commands line by line until quit or EOF. Actions target the open drawer if there is
// one and the list otherwise.
func (a *app) browse(ctx context.Context, in io.Reader) error {
	_ = a.store.Fetch(ctx)
	a.renderList()
	a.printf("%s", browseHelp)

	scanner := bufio.NewScanner(in)
	for {
		a.printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := a.dispatch(ctx, cmd, rest); err != nil {
			a.printf("! %v\n", err)
		}
		a.renderCurrent()
	}
}

func (a *app) dispatch(ctx context.Context, cmd, rest string) error {
	switch cmd {
	case "help":
		a.printf("%s", browseHelp)
		return nil
	case "sort":
		return a.store.SetSortBy(ctx, models.SortMode(rest))
	case "open":
		id, err := parseCommentID(rest)
		if err != nil {
			return err
		}
		// Load failures are shown by the frame itself.
		_ = a.stack.Push(id).Load(ctx)
		return nil
	case "back":
		a.stack.Pop()
		if f := a.stack.Active(); f != nil {
			_ = f.Load(ctx)
		}
		return nil
	case "close":
		a.stack.Clear()
		return nil
	case "retry":
		if f := a.stack.Active(); f != nil {
			_ = f.Retry(ctx)
			return nil
		}
		_ = a.store.Fetch(ctx)
		return nil
	case "post":
		return a.store.Create(ctx, rest, nil)
	case "up":
		id, err := parseCommentID(rest)
		if err != nil {
			return err
		}
		if f := a.stack.Active(); f != nil {
			return f.Upvote(ctx, id)
		}
		return a.store.Upvote(ctx, id)
	case "reply":
		idArg, text, _ := strings.Cut(rest, " ")
		id, err := parseCommentID(idArg)
		if err != nil {
			return err
		}
		if f := a.stack.Active(); f != nil {
			return f.Reply(ctx, id, text)
		}
		return a.store.Create(ctx, text, &id)
	case "rm":
		id, err := parseCommentID(rest)
		if err != nil {
			return err
		}
		return a.remove(ctx, id)
	default:
		return errors.New("unknown command " + cmd + ", type 'help'")
	}
}

// remove deletes id from the active view, if the viewer is allowed to.
func (a *app) remove(ctx context.Context, id uint) error {
	viewer := a.session.Viewer()
	if f := a.stack.Active(); f != nil {
		c, ok := findInFrame(f.Snapshot().Comment, id)
		if !ok {
			return errors.New("that comment is not in this drawer")
		}
		if !session.CanDelete(viewer, c) {
			return errors.New("you cannot delete this comment")
		}
		return f.Delete(ctx, id)
	}

	c, err := a.store.Find(id)
	if err != nil {
		return err
	}
	if !session.CanDelete(viewer, c) {
		return errors.New("you cannot delete this comment")
	}
	return a.store.Delete(ctx, id)
}

func (a *app) renderCurrent() {
	if f := a.stack.Active(); f != nil {
		a.renderFrame(f.Snapshot())
		return
	}
	a.renderList()
}

func findInFrame(c *models.Comment, id uint) (models.Comment, bool) {
	if c == nil {
		return models.Comment{}, false
	}
	if c.ID == id {
		return *c, true
	}
	for _, r := range c.Replies {
		if r.ID == id {
			return r, true
		}
	}
	return models.Comment{}, false
}
