package components

import (
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type ChatPanelConfig struct {
	APIBase      string
	SessionID    string
	// GreetingHTML must already be sanitized; it is rendered as markup.
	GreetingHTML string
}

// StreamEndpoint is where the chat widget posts messages.
func (c ChatPanelConfig) StreamEndpoint() string {
	return strings.TrimRight(c.APIBase, "/") + "/chat/stream"
}

// ChatPanel is the mounting point for the chat widget. The data attributes
// are read by the client script; the form is the no-script fallback.
func ChatPanel(cfg ChatPanelConfig) g.Node {
	return Div(
		Class("h-[calc(100vh-6rem)] bg-gradient-to-b from-blue-50 to-red-50 flex items-center justify-center"),
		Div(
			ID("chat"),
			Class("h-full w-full max-w-4xl border-2 border-gray-300 flex flex-col"),
			g.Attr("data-api-base", cfg.APIBase),
			g.Attr("data-session-id", cfg.SessionID),
			Div(
				ID("chat-log"),
				Class("flex-1 overflow-y-auto p-4 space-y-2"),
				g.Attr("aria-live", "polite"),
				g.If(cfg.GreetingHTML != "", P(Class("text-gray-600"), g.Raw(cfg.GreetingHTML))),
			),
			Form(
				ID("chat-form"),
				Method("post"),
				Action(cfg.StreamEndpoint()),
				Class("flex gap-2 p-4 border-t border-gray-300"),
				Input(Type("hidden"), Name("session_id"), Value(cfg.SessionID)),
				Textarea(
					Name("message"),
					Class("flex-1 border rounded p-2"),
					Placeholder("Ask a medical question..."),
					Required(),
				),
				Button(Type("submit"), Class("px-4 py-2 bg-blue-600 text-white rounded"), g.Text("Send")),
			),
		),
		Script(Src("/static/chat.js"), Defer()),
	)
}

type PreferenceOption struct {
	Label string
	Value string
}

func PreferencesPanel(brand string, options []PreferenceOption) g.Node {
	return Main(
		Class("max-w-3xl mx-auto p-6"),
		H1(Class("text-2xl font-bold mb-4"), g.Textf("%s preferences", brand)),
		g.If(len(options) == 0, P(Class("text-gray-600"), g.Text("No preferences are configurable yet."))),
		g.If(len(options) > 0, Dl(
			Class("divide-y divide-gray-200"),
			g.Group(g.Map(options, func(option PreferenceOption) g.Node {
				return Div(
					Class("py-3 flex justify-between"),
					Dt(Class("font-semibold"), g.Text(option.Label)),
					Dd(Class("text-gray-700"), g.Text(option.Value)),
				)
			})),
		)),
	)
}

func NotFoundPanel() g.Node {
	return Main(
		Class("max-w-3xl mx-auto p-6 text-center"),
		H1(Class("text-2xl font-bold mb-2"), g.Text("Page not found")),
		P(Class("text-gray-600"), g.Text("The requested page could not be found.")),
		A(Href("/"), Class("text-blue-600 underline"), g.Text("Back to the assistant")),
	)
}
