package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	g "maragu.dev/gomponents"

	"assistant-portal/internal/branding"
	"assistant-portal/internal/components"
	"assistant-portal/pkg/logger"
	"assistant-portal/pkg/validator"
)

const sessionCookieName = "chat_session"

var (
	headerMetricsOnce  sync.Once
	headerRendersTotal *prometheus.CounterVec
)

func observeHeaderRender(state components.MenuState) {
	headerMetricsOnce.Do(func() {
		headerRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant_portal",
			Subsystem: "site",
			Name:      "header_renders_total",
			Help:      "Rendered site headers by mobile menu state",
		}, []string{"state"})
	})
	headerRendersTotal.WithLabelValues(state.String()).Inc()
}

// SiteHandler renders the public pages of one site variant.
type SiteHandler struct {
	variant     branding.Variant
	chatAPIBase string
	greeting    string
	preferences []components.PreferenceOption
}

func NewSiteHandler(variant branding.Variant, chatAPIBase string) *SiteHandler {
	if base := strings.TrimSpace(variant.ChatAPIBase); base != "" {
		chatAPIBase = base
	}
	if strings.TrimSpace(chatAPIBase) == "" {
		chatAPIBase = "/api"
	}

	return &SiteHandler{
		variant:     variant,
		chatAPIBase: chatAPIBase,
		greeting:    validator.SanitizeMarkup(variant.Greeting),
		preferences: []components.PreferenceOption{
			{Label: "Assistant", Value: variant.Name},
			{Label: "Chat API", Value: chatAPIBase},
		},
	}
}

// header builds a fresh NavHeader for this request; its menu state comes
// from the query string and lives only as long as the render.
func (h *SiteHandler) header(c *gin.Context) *components.NavHeader {
	header := components.NewNavHeader(h.variant.HeaderConfig())
	header.SetActionPath(c.Request.URL.RequestURI())
	if components.MenuStateFromQuery(c.Query(components.MenuQueryParam)) == components.MenuExpanded {
		header.Toggle()
	}
	observeHeaderRender(header.State())
	return header
}

func (h *SiteHandler) RenderHome(c *gin.Context) {
	page := components.Layout(
		h.variant.PageMeta(""),
		h.header(c),
		components.ChatPanel(components.ChatPanelConfig{
			APIBase:      h.chatAPIBase,
			SessionID:    h.sessionID(c),
			GreetingHTML: h.greeting,
		}),
	)
	h.render(c, http.StatusOK, page)
}

func (h *SiteHandler) RenderPreferences(c *gin.Context) {
	page := components.Layout(
		h.variant.PageMeta("Preferences"),
		h.header(c),
		components.PreferencesPanel(h.variant.Name, h.preferences),
	)
	h.render(c, http.StatusOK, page)
}

func (h *SiteHandler) RenderNotFound(c *gin.Context) {
	page := components.Layout(
		h.variant.PageMeta("404 - Page not found"),
		h.header(c),
		components.NotFoundPanel(),
	)
	h.render(c, http.StatusNotFound, page)
}

// sessionID reuses the visitor's chat session cookie or issues a new one.
func (h *SiteHandler) sessionID(c *gin.Context) string {
	if existing, err := c.Cookie(sessionCookieName); err == nil && validator.ValidSessionID(existing) {
		return existing
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, id, 0, "/", "", c.Request.TLS != nil, true)
	return id
}

func (h *SiteHandler) render(c *gin.Context, status int, page g.Node) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := page.Render(c.Writer); err != nil {
		logger.Error(err, "Failed to render page", map[string]interface{}{"path": c.Request.URL.Path})
	}
}
