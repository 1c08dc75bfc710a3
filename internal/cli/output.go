package cli

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/micropost/micropost/internal/model"
)

// renderTable prints a pretty table to w.
func renderTable(w io.Writer, headers []string, rows [][]any) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

func renderUsers(w io.Writer, users []*model.User) {
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, []any{u.ID, u.Name, u.Email})
	}
	renderTable(w, []string{"ID", "Name", "Email"}, rows)
}

// renderPosts prints posts with author names looked up in names.
func renderPosts(w io.Writer, posts []*model.Post, names map[string]string) {
	rows := make([][]any, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []any{p.CreatedAt.Format(time.RFC3339), names[p.AuthorID], p.Content})
	}
	renderTable(w, []string{"Posted", "Author", "Content"}, rows)
}
