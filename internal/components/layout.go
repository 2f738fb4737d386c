package components

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type PageMeta struct {
	Title       string
	Description string
	Keywords    string
	Author      string
	Language    string
	Favicon     string
}

// Layout wraps page content with the document shell and the site header.
func Layout(meta PageMeta, header *NavHeader, content ...g.Node) g.Node {
	if meta.Language == "" {
		meta.Language = "en"
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang(meta.Language),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(meta.Title)),
				g.If(meta.Description != "", Meta(Name("description"), Content(meta.Description))),
				g.If(meta.Keywords != "", Meta(Name("keywords"), Content(meta.Keywords))),
				g.If(meta.Author != "", Meta(Name("author"), Content(meta.Author))),
				g.If(meta.Favicon != "", Link(Rel("icon"), Href(meta.Favicon))),
				Link(Rel("stylesheet"), Href("/static/styles.css")),
			),
			Body(
				Class("bg-white text-gray-900"),
				g.Iff(header != nil, func() g.Node { return Strong(header.Node()) }),
				g.Group(content),
			),
		),
	})
}
