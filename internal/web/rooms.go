package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// AdminRooms lists live rooms for operators.
func AdminRooms(data AdminRoomsData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Sketch Rooms Admin</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Admin</span>
        <h1>Rooms</h1>
        <p>`)
		b.WriteString(itoa(data.Pagination.Total))
		b.WriteString(` active rooms. Categories: `)
		b.WriteString(templ.EscapeString(strings.Join(data.Categories, ", ")))
		b.WriteString(`</p>
      </header>
      <table class="rooms">
        <thead>
          <tr><th>Room</th><th>Owner</th><th>Phase</th><th>Round</th><th>Players</th><th>Connected</th><th>Created</th></tr>
        </thead>
        <tbody>
`)
		if len(data.Rooms) == 0 {
			b.WriteString(`          <tr><td colspan="7">No rooms yet.</td></tr>
`)
		}
		for _, room := range data.Rooms {
			b.WriteString(`          <tr><td>`)
			b.WriteString(templ.EscapeString(room.ID))
			b.WriteString(`</td><td>`)
			b.WriteString(templ.EscapeString(room.Owner))
			b.WriteString(`</td><td>`)
			b.WriteString(templ.EscapeString(room.Phase))
			b.WriteString(`</td><td>`)
			b.WriteString(itoa(room.CurrentRound) + "/" + itoa(room.MaxRounds))
			b.WriteString(`</td><td>`)
			b.WriteString(itoa(room.Players))
			b.WriteString(`</td><td>`)
			b.WriteString(itoa(room.Connected))
			b.WriteString(`</td><td>`)
			b.WriteString(formatTime(room.CreatedAt))
			b.WriteString(`</td></tr>
`)
		}
		b.WriteString(`        </tbody>
      </table>
      <nav class="pagination">
`)
		p := data.Pagination
		if p.HasPrev {
			b.WriteString(`        <a href="` + templ.EscapeString(pageURL(p.BasePath, p.PrevPage, p.PerPage)) + `">Previous</a>
`)
		}
		b.WriteString(`        <span>Page ` + itoa(p.Page) + ` of ` + itoa(p.TotalPages) + `</span>
`)
		if p.HasNext {
			b.WriteString(`        <a href="` + templ.EscapeString(pageURL(p.BasePath, p.NextPage, p.PerPage)) + `">Next</a>
`)
		}
		b.WriteString(`      </nav>
    </main>
  </body>
</html>
`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
