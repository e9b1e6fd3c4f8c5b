package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/guard"
	"github.com/kt-primus/einsatzplanung/internal/planning"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Handler serves the HTML pages. Page data comes from the JSON API; the
// handlers only pick the template and the session specific bits.
type Handler struct {
	policy *guard.Policy
	loc    *time.Location
	now    func() time.Time
	logout gin.HandlerFunc
}

// New builds the page handler. logout ends the session (cookie, token
// revocation, role cache) before /logout redirects.
func New(policy *guard.Policy, loc *time.Location, logout gin.HandlerFunc) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{policy: policy, loc: loc, now: time.Now, logout: logout}
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Register installs the templates on r and mounts the pages. The guard
// middleware is expected to run before these handlers.
func (h *Handler) Register(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())

	static, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/static", http.FS(static))

	r.GET("/", h.Index)
	r.GET("/login", h.Login)
	r.GET("/no-access", h.NoAccess)
	r.GET("/dashboard", h.Dashboard)
	r.GET("/dienstplan", h.CurrentPlan)
	r.GET("/planung/:year/:month", h.Planning)
	r.GET("/konfiguration", h.page("konfiguration.html", "Konfiguration"))
	r.GET("/personal", h.page("personal.html", "Personalabteilung"))
	r.GET("/archiv", h.page("archiv.html", "Archiv"))
	r.GET("/disposition", h.page("placeholder.html", "Disposition"))
	r.GET("/urlaub", h.page("urlaub.html", "Dienst & Urlaub"))
	r.GET("/logout", h.Logout)
}

func (h *Handler) Index(c *gin.Context) {
	if auth.RoleFrom(c) == domain.RoleNone {
		c.Redirect(http.StatusFound, guard.LoginPath)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) Login(c *gin.Context) {
	d := h.data(c, "Anmelden")
	d["Redirect"] = SafeRedirect(c.Query("r"))
	c.HTML(http.StatusOK, "login.html", d)
}

func (h *Handler) NoAccess(c *gin.Context) {
	c.HTML(http.StatusForbidden, "no_access.html", h.data(c, "Kein Zugriff"))
}

func (h *Handler) Dashboard(c *gin.Context) {
	d := h.data(c, "Dashboard")
	d["Greeting"] = Greeting(h.now().In(h.loc).Hour())
	d["Items"] = Visible(NavItems, auth.RoleFrom(c), h.policy)
	c.HTML(http.StatusOK, "dashboard.html", d)
}

// CurrentPlan opens the grid of the current month.
func (h *Handler) CurrentPlan(c *gin.Context) {
	now := h.now().In(h.loc)
	c.Redirect(http.StatusFound, PlanPath(now.Year(), int(now.Month())))
}

func (h *Handler) Planning(c *gin.Context) {
	year, month, err := planning.ParseMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		c.Redirect(http.StatusFound, "/dienstplan")
		return
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	prev, next := first.AddDate(0, -1, 0), first.AddDate(0, 1, 0)

	d := h.data(c, "Dienstplan "+planning.MonthTitle(year, month))
	d["Year"] = year
	d["Month"] = month
	d["MonthTitle"] = planning.MonthTitle(year, month)
	d["PrevPath"] = PlanPath(prev.Year(), int(prev.Month()))
	d["NextPath"] = PlanPath(next.Year(), int(next.Month()))
	d["APIBase"] = fmt.Sprintf("/api/plan/%d/%d", year, month)
	c.HTML(http.StatusOK, "planung.html", d)
}

func (h *Handler) Logout(c *gin.Context) {
	if h.logout != nil {
		h.logout(c)
	} else {
		auth.ClearSessionCookie(c, false)
	}
	c.Redirect(http.StatusFound, guard.LoginPath)
}

func (h *Handler) page(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, h.data(c, title))
	}
}

func (h *Handler) data(c *gin.Context, title string) gin.H {
	s, _ := auth.SessionFrom(c)
	return gin.H{
		"Title":    title,
		"Session":  s,
		"Role":     s.Role.String(),
		"CanWrite": s.Role.CanWrite(),
		"IsAdmin":  s.Role.AtLeast(domain.RoleAdmin),
	}
}

// PlanPath is the page URL of a month grid.
func PlanPath(year, month int) string {
	return fmt.Sprintf("/planung/%d/%d", year, month)
}

// SafeRedirect keeps post-login redirects on this site.
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "/dashboard"
	}
	if target == guard.LoginPath || strings.HasPrefix(target, guard.LoginPath+"?") {
		return "/dashboard"
	}
	return target
}
