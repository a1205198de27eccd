// Package views renders the login, register and bus schedule screens.
//
// The screens keep no server state. Transient view state such as the
// password visibility or the open menu travels in the query string, so a
// plain reload or a fresh visit always starts from the default view.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aau-transit/bustrack/internal/schedule"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	PathRoot     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathSchedule = "/bus-schedule"

	MenuTime     = "time"
	MenuLocation = "location"
)

type Brand struct {
	Name    string
	LogoURL string
}

var DefaultBrand = Brand{
	Name:    "Al-Ahliyya Amman University",
	LogoURL: "/static/aaulogo.svg",
}

type Page struct {
	Title   string
	Screen  string
	Brand   Brand
	// BackURL turns the header menu icon into a link; empty leaves it decorative
	BackURL string
}

type LoginPage struct {
	Page
}

type RegisterPage struct {
	Page
	ShowPassword bool
	PasswordType string
	ToggleURL    string
	ToggleLabel  string
}

type MenuOption struct {
	Label string
	URL   string
}

type Menu struct {
	Key       string
	Label     string
	Open      bool
	ToggleURL string
	Options   []MenuOption
}

type SchedulePage struct {
	Page
	Menus   []Menu
	Entries []schedule.Entry
}

func NewLoginPage() LoginPage {
	return LoginPage{Page: Page{Title: "Login", Screen: "login", Brand: DefaultBrand}}
}

func NewRegisterPage(showPassword bool) RegisterPage {
	p := RegisterPage{
		Page:         Page{Title: "Register", Screen: "register", Brand: DefaultBrand},
		ShowPassword: showPassword,
		PasswordType: "password",
		ToggleURL:    PathRegister + "?show_password=1",
		ToggleLabel:  "Show password",
	}
	if showPassword {
		p.PasswordType = "text"
		p.ToggleURL = PathRegister
		p.ToggleLabel = "Hide password"
	}
	return p
}

// NewSchedulePage builds the schedule screen with at most one menu open.
// Unknown menu keys leave both menus closed. Options never filter the entries.
// The button of an open menu and each of its options lead back to the closed screen.
func NewSchedulePage(catalog *schedule.Catalog, openMenu string) SchedulePage {
	return SchedulePage{
		Page: Page{Title: "Bus Schedule", Screen: "schedule", Brand: DefaultBrand, BackURL: PathLogin},
		Menus: []Menu{
			newMenu(MenuTime, "Time", catalog.TimeOptions(), openMenu),
			newMenu(MenuLocation, "Location", catalog.LocationOptions(), openMenu),
		},
		Entries: catalog.Entries(),
	}
}

func newMenu(key, label string, options []string, openMenu string) Menu {
	m := Menu{
		Key:       key,
		Label:     label,
		Open:      key == openMenu,
		ToggleURL: PathSchedule + "?menu=" + key,
	}
	if m.Open {
		m.ToggleURL = PathSchedule
		for _, opt := range options {
			m.Options = append(m.Options, MenuOption{Label: opt, URL: PathSchedule})
		}
	}
	return m
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// MustTemplates panics if the embedded templates do not parse.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Register mounts the screens, their static assets and the not found fallback.
func Register(r *gin.Engine, catalog *schedule.Catalog) {
	// "/register/" is an unknown path, not a redirect
	r.RedirectTrailingSlash = false
	r.SetHTMLTemplate(MustTemplates())

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET(PathRoot, login)
	r.GET(PathLogin, login)
	r.GET(PathRegister, register)
	r.GET(PathSchedule, func(c *gin.Context) {
		c.HTML(http.StatusOK, "schedule.html", NewSchedulePage(catalog, c.Query("menu")))
	})
	r.NoRoute(NotFound)
}

func login(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", NewLoginPage())
}

func register(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", NewRegisterPage(c.Query("show_password") == "1"))
}

// NotFound answers JSON under /api and the not found page elsewhere.
func NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.HTML(http.StatusNotFound, "not_found.html", Page{Title: "Not Found", Screen: "not-found", Brand: DefaultBrand})
}
