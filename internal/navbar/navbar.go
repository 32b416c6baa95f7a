// Package navbar builds the top-bar model the pantry front ends render.
//
// Every variant is the same model driven by a Profile; the two built-in
// profiles cover the check-in app and the staff dashboard.
package navbar

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hongminglow/carecrate/internal/models"
)

// Action is a button shown to signed-in staff.
type Action struct {
	ID    string   `yaml:"id"`
	Label string   `yaml:"label"`
	Icon  string   `yaml:"icon,omitempty"`
	Href  string   `yaml:"href,omitempty"`
	Roles []string `yaml:"roles,omitempty"`
}

// Allows reports whether role may see the action. No roles means everyone.
func (a Action) Allows(role string) bool {
	return len(a.Roles) == 0 || slices.Contains(a.Roles, role)
}

// Profile parameterizes one navbar variant.
type Profile struct {
	ProductName string   `yaml:"productName"`
	Greeting    string   `yaml:"greeting"`
	ThemeToggle bool     `yaml:"themeToggle"`
	Actions     []Action `yaml:"actions"`
}

// Item is a rendered link or button.
type Item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Href  string `json:"href,omitempty"`
}

// Menu is what a client renders.
type Menu struct {
	Variant     string `json:"variant"`
	Title       string `json:"title"`
	SignedIn    bool   `json:"signedIn"`
	Role        string `json:"role,omitempty"`
	Links       []Item `json:"links,omitempty"`
	Actions     []Item `json:"actions,omitempty"`
	ProfileMenu []Item `json:"profileMenu,omitempty"`
	ThemeToggle bool   `json:"themeToggle"`
}

var (
	loginLink    = Item{ID: "login", Label: "Login", Href: "/login"}
	registerLink = Item{ID: "register", Label: "Register", Href: "/register"}
	logoutItem   = Item{ID: "logout", Label: "Logout", Href: "/login"}
)

// Build renders profile for session. A nil session is signed out.
func Build(variant string, profile Profile, session *models.Session) Menu {
	menu := Menu{
		Variant:     variant,
		Title:       profile.ProductName,
		ThemeToggle: profile.ThemeToggle,
	}
	if session == nil {
		menu.Links = []Item{loginLink, registerLink}
		return menu
	}

	menu.SignedIn = true
	menu.Role = session.Role
	menu.Title = fmt.Sprintf("%s, %s", profile.Greeting, session.Name)
	for _, action := range profile.Actions {
		if !action.Allows(session.Role) {
			continue
		}
		menu.Actions = append(menu.Actions, Item{
			ID:    action.ID,
			Label: action.Label,
			Icon:  action.Icon,
			Href:  action.Href,
		})
	}
	menu.ProfileMenu = []Item{logoutItem}
	return menu
}

// Registry holds the profiles a server can serve, by variant name.
type Registry struct {
	profiles map[string]Profile
}

// Builtin returns a registry with the pantry and dashboard variants.
func Builtin() *Registry {
	return &Registry{profiles: map[string]Profile{
		"pantry": {
			ProductName: "CareCrate",
			Greeting:    "Good Morning",
			ThemeToggle: true,
			Actions: []Action{
				{ID: "profile", Label: "Profile", Icon: "account_circle"},
				{ID: "reports", Label: "Reports", Icon: "timeline", Href: "/reports", Roles: []string{models.AdminRole}},
			},
		},
		"dashboard": {
			ProductName: "CareCrate Dashboard",
			Greeting:    "Welcome back",
			ThemeToggle: true,
			Actions: []Action{
				{ID: "profile", Label: "Profile", Icon: "account_circle"},
				{ID: "visits", Label: "Today's Visits", Icon: "groups", Href: "/visits/today"},
				{ID: "reports", Label: "Reports", Icon: "timeline", Href: "/reports", Roles: []string{models.AdminRole}},
				{ID: "settings", Label: "Settings", Icon: "settings", Href: "/settings", Roles: []string{models.AdminRole}},
			},
		},
	}}
}

type profileFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// LoadProfiles reads extra variants from a YAML file on top of the built-in
// ones. A variant in the file replaces a built-in of the same name.
func LoadProfiles(path string) (*Registry, error) {
	reg := Builtin()
	if path == "" {
		return reg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read navbar profiles: %w", err)
	}
	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse navbar profiles %s: %w", path, err)
	}
	for name, profile := range file.Profiles {
		if profile.ProductName == "" {
			return nil, fmt.Errorf("navbar profile %q: productName is required", name)
		}
		if profile.Greeting == "" {
			profile.Greeting = "Hello"
		}
		for _, action := range profile.Actions {
			for _, role := range action.Roles {
				if !models.ValidRole(role) {
					return nil, fmt.Errorf("navbar profile %q action %q: unknown role %q", name, action.ID, role)
				}
			}
		}
		reg.profiles[name] = profile
	}
	return reg, nil
}

// Lookup returns the profile for variant.
func (r *Registry) Lookup(variant string) (Profile, bool) {
	p, ok := r.profiles[variant]
	return p, ok
}

// Variants lists the registered variant names in order.
func (r *Registry) Variants() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
