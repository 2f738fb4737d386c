package components

import (
	"io"
	"net/url"
	"sort"
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"assistant-portal/pkg/navigation"
)

// MenuQueryParam carries the mobile menu state between server renders.
const MenuQueryParam = "menu"

const menuOpenValue = "open"

// MenuState is the visibility of the narrow-viewport dropdown.
type MenuState int

const (
	MenuCollapsed MenuState = iota
	MenuExpanded
)

func (s MenuState) String() string {
	if s == MenuExpanded {
		return "expanded"
	}
	return "collapsed"
}

// MenuStateFromQuery maps the menu query value onto a MenuState.
func MenuStateFromQuery(value string) MenuState {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case menuOpenValue, "expanded", "1", "true":
		return MenuExpanded
	default:
		return MenuCollapsed
	}
}

type LogoConfig struct {
	Src    string
	Alt    string
	Width  string
	Height string
}

// HeaderConfig is the per-variant configuration injected into a NavHeader.
type HeaderConfig struct {
	BrandName string
	Logo      LogoConfig
	Items     []navigation.Item
	HomePath  string
}

// NavHeader renders branding and navigation. Each instance owns its own
// menu state; nothing is shared between headers.
type NavHeader struct {
	config     HeaderConfig
	state      MenuState
	actionPath string
}

func NewNavHeader(cfg HeaderConfig) *NavHeader {
	cfg.Items = navigation.Clone(cfg.Items)
	if strings.TrimSpace(cfg.HomePath) == "" {
		cfg.HomePath = "/"
	}
	if cfg.Logo.Alt == "" {
		cfg.Logo.Alt = "Logo"
	}

	return &NavHeader{
		config:     cfg,
		state:      MenuCollapsed,
		actionPath: cfg.HomePath,
	}
}

func (h *NavHeader) State() MenuState {
	return h.state
}

func (h *NavHeader) Expanded() bool {
	return h.state == MenuExpanded
}

// Toggle flips the dropdown between collapsed and expanded.
func (h *NavHeader) Toggle() {
	if h.state == MenuExpanded {
		h.state = MenuCollapsed
		return
	}
	h.state = MenuExpanded
}

// SetActionPath sets the page the toggle button submits back to. Any query
// on path other than the menu parameter is kept across toggles.
func (h *NavHeader) SetActionPath(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = h.config.HomePath
	}
	h.actionPath = path
}

// Items returns a copy of the configured entries in render order.
func (h *NavHeader) Items() []navigation.Item {
	return navigation.Clone(h.config.Items)
}

// ToggleHref is the URL that renders the header in the opposite state.
func (h *NavHeader) ToggleHref() string {
	path, query := h.actionTarget()
	if h.state != MenuExpanded {
		query.Set(MenuQueryParam, menuOpenValue)
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// actionTarget splits the action path into its path and the query it
// carries, minus the menu parameter.
func (h *NavHeader) actionTarget() (string, url.Values) {
	target, err := url.Parse(h.actionPath)
	if err != nil {
		return h.actionPath, url.Values{}
	}
	query := target.Query()
	query.Del(MenuQueryParam)
	target.RawQuery = ""
	target.Fragment = ""
	return target.String(), query
}

func (h *NavHeader) Render(w io.Writer) error {
	return h.Node().Render(w)
}

func (h *NavHeader) Node() g.Node {
	expanded := h.Expanded()

	return Header(
		Class("bg-white shadow-md relative w-full z-100"),
		g.Attr("data-menu-state", h.state.String()),
		Div(
			Class("flex items-center justify-between p-2 md:p-4 max-w-screen-xl mx-auto"),
			Div(
				Class("flex-1"),
				A(
					Href(h.config.HomePath),
					Class("py-2"),
					g.Attr("data-role", "logo"),
					h.logoNode(),
				),
			),
			Nav(
				ID("desktop-menu"),
				Class("flex-1 hidden md:flex items-center justify-end space-x-6"),
				g.Attr("aria-label", "Main"),
				g.Group(h.linkNodes("text-sm text-gray-700 font-bold mr-8")),
			),
			h.toggleNode(expanded),
		),
		g.If(expanded, Div(
			Class("absolute top-full left-0 right-0 bg-white p-4 shadow-md block md:hidden"),
			Nav(
				ID("mobile-menu"),
				Class("flex flex-col"),
				g.Attr("aria-label", "Main"),
				g.Group(h.linkNodes("text-sm text-gray-700 font-bold py-2 border-b border-gray-200")),
			),
		)),
	)
}

func (h *NavHeader) logoNode() g.Node {
	if strings.TrimSpace(h.config.Logo.Src) == "" {
		text := strings.TrimSpace(h.config.BrandName)
		if text == "" {
			text = h.config.Logo.Alt
		}
		return Span(Class("font-bold text-lg"), g.Text(text))
	}

	return Img(
		Src(h.config.Logo.Src),
		Alt(h.config.Logo.Alt),
		g.If(h.config.Logo.Width != "", Width(h.config.Logo.Width)),
		g.If(h.config.Logo.Height != "", Height(h.config.Logo.Height)),
		Class("object-contain"),
	)
}

func (h *NavHeader) linkNodes(class string) []g.Node {
	return g.Map(h.config.Items, func(item navigation.Item) g.Node {
		return A(Href(item.Path), Class(class), g.Text(item.Label))
	})
}

// The toggle is a GET form so the dropdown works without JavaScript.
func (h *NavHeader) toggleNode(expanded bool) g.Node {
	ariaExpanded := "false"
	if expanded {
		ariaExpanded = "true"
	}

	// GET forms replace the action's query, so it is resent as hidden fields.
	path, query := h.actionTarget()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return Form(
		Method("get"),
		Action(path),
		Class("md:hidden"),
		g.Group(g.Map(keys, func(key string) g.Node {
			return g.Group(g.Map(query[key], func(value string) g.Node {
				return Input(Type("hidden"), Name(key), Value(value))
			}))
		})),
		g.If(!expanded, Input(Type("hidden"), Name(MenuQueryParam), Value(menuOpenValue))),
		Button(
			Type("submit"),
			ID("menu-toggle"),
			Class("text-2xl p-2"),
			g.Attr("aria-controls", "mobile-menu"),
			g.Attr("aria-expanded", ariaExpanded),
			g.Attr("aria-label", "Toggle navigation"),
			g.Text("☰"),
		),
	)
}
