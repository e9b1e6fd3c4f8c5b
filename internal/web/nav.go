package web

import (
	"slices"

	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/guard"
)

// NavItem is one dashboard button.
type NavItem struct {
	Label         string
	Target        string
	Color         string
	RequiredRoles []domain.Role
}

var (
	everyone    = []domain.Role{domain.RolePersonal, domain.RoleDisp, domain.RoleAdmin}
	dispatchers = []domain.Role{domain.RoleDisp, domain.RoleAdmin}
	adminsOnly  = []domain.Role{domain.RoleAdmin}
)

// NavItems is the dashboard in display order.
var NavItems = []NavItem{
	{Label: "Dienstplan", Target: "/dienstplan", Color: "#42a5f5", RequiredRoles: everyone},
	{Label: "Disposition", Target: "/disposition", Color: "#26a69a", RequiredRoles: dispatchers},
	{Label: "Personalabteilung", Target: "/personal", Color: "#ffa726", RequiredRoles: dispatchers},
	{Label: "Konfiguration", Target: "/konfiguration", Color: "#ab47bc", RequiredRoles: adminsOnly},
	{Label: "Archiv", Target: "/archiv", Color: "#78909c", RequiredRoles: dispatchers},
	{Label: "Urlaub", Target: "/urlaub", Color: "#4caf50", RequiredRoles: everyone},
	{Label: "Logout", Target: "/logout", Color: "#ef5350", RequiredRoles: everyone},
}

// Visible filters items down to those the role may see and the guard lets
// it open.
func Visible(items []NavItem, role domain.Role, p *guard.Policy) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, it := range items {
		if !slices.Contains(it.RequiredRoles, role) {
			continue
		}
		if p != nil && !p.Allows(it.Target, role) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Greeting picks the salutation for a local hour.
func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Guten Morgen"
	case hour < 18:
		return "Guten Tag"
	default:
		return "Guten Abend"
	}
}
