package main

import (
	"strings"

	"github.com/anonto42/discuss/internal/drawer"
	"github.com/anonto42/discuss/internal/models"
	"github.com/anonto42/discuss/internal/session"
	"github.com/dustin/go-humanize"
)

func (a *app) renderList() {
	v := a.store.Snapshot()
	a.printf("Comments (%d) sorted by %s\n", len(v.Comments), v.SortBy)
	if v.Err != "" {
		a.printf("! %s (type 'retry' to reload)\n", v.Err)
	}
	if len(v.Comments) == 0 && v.Err == "" {
		a.printf("No comments yet. Be the first to comment!\n")
	}
	for _, c := range v.Comments {
		a.renderComment(c, "")
	}
}

func (a *app) renderFrame(v drawer.View) {
	header := "Replies"
	if v.Comment != nil {
		header = "Replies (" + humanize.Comma(int64(len(v.Comment.Replies))) + ")"
	}
	if a.stack.CanGoBack() {
		header = "‹ " + header
	}
	a.printf("%s  [%s]\n", header, v.State)

	switch {
	case v.State == drawer.StateFailed:
		a.printf("! %s (type 'retry' to try again)\n", v.Err)
		return
	case v.Comment == nil:
		a.printf("Loading replies...\n")
		return
	}

	a.renderComment(*v.Comment, "")
	if len(v.Comment.Replies) == 0 {
		a.printf("  No replies yet.\n")
		return
	}
	for _, r := range v.Comment.Replies {
		a.renderComment(r, "    ")
	}
}

func (a *app) renderComment(c models.Comment, indent string) {
	author := "unknown"
	badge := ""
	if c.Author != nil {
		author = c.Author.Name
		if c.Author.Role == models.RoleAdmin {
			badge = " [admin]"
		}
	}
	line := indent + "#" + humanize.Comma(int64(c.ID)) + "  ▲" + humanize.Comma(int64(c.Upvotes)) +
		"  " + author + badge + " · " + humanize.Time(c.CreatedAt)
	if c.ReplyCount != nil && *c.ReplyCount > 0 {
		line += "  (" + humanize.Comma(int64(*c.ReplyCount)) + " " + plural(*c.ReplyCount, "reply", "replies") + ")"
	}
	if session.CanDelete(a.session.Viewer(), c) {
		line += "  [can delete]"
	}
	a.printf("%s\n", line)
	for _, l := range strings.Split(c.Text, "\n") {
		a.printf("%s  %s\n", indent, l)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
