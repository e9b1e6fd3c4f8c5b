package guard

import (
	"net/url"
	"path"
	"strings"

	"github.com/kt-primus/einsatzplanung/internal/domain"
)

const (
	LoginPath    = "/login"
	NoAccessPath = "/no-access"
)

type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the outcome of evaluating one navigation.
type Decision struct {
	Action   Action
	Location string
	// Reason labels the rule that matched: public, login, bypass, allowed
	// or denied.
	Reason string
}

// Policy maps roles to the path prefixes they may open. Roles not present in
// Prefixes and below Bypass get nothing beyond the public paths.
type Policy struct {
	PublicPaths     []string
	SystemPrefixes  []string
	AssetExtensions []string
	Prefixes        map[domain.Role][]string
	// Bypass is the lowest role that skips the allow-list.
	Bypass domain.Role
}

var basePrefixes = []string{"/dashboard", "/dienstplan", "/planung", "/urlaub", "/logout"}

// DefaultPolicy is the allow-list of the application.
func DefaultPolicy() *Policy {
	return &Policy{
		PublicPaths:     []string{"/", LoginPath, NoAccessPath},
		SystemPrefixes:  []string{"/api", "/static", "/assets", "/favicon", "/healthz", "/health", "/metrics"},
		AssetExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".css", ".js"},
		Prefixes: map[domain.Role][]string{
			domain.RolePersonal: basePrefixes,
			domain.RoleDisp:     append(append([]string{}, basePrefixes...), "/disposition", "/personal", "/archiv"),
		},
		Bypass: domain.RoleAdmin,
	}
}

// Evaluate is a pure function of (path, role).
func (p *Policy) Evaluate(rawPath string, role domain.Role) Decision {
	clean := normalize(rawPath)

	if p.isPublic(clean) {
		return Decision{Action: Allow, Reason: "public"}
	}
	if role == domain.RoleNone {
		return Decision{
			Action:   Redirect,
			Location: LoginPath + "?r=" + url.QueryEscape(rawPath),
			Reason:   "login",
		}
	}
	if role.AtLeast(p.Bypass) {
		return Decision{Action: Allow, Reason: "bypass"}
	}
	for _, prefix := range p.Prefixes[role] {
		if hasSegmentPrefix(clean, prefix) {
			return Decision{Action: Allow, Reason: "allowed"}
		}
	}
	return Decision{Action: Redirect, Location: NoAccessPath, Reason: "denied"}
}

// Allows reports whether role may open target. Used to hide navigation the
// role cannot follow.
func (p *Policy) Allows(target string, role domain.Role) bool {
	return p.Evaluate(target, role).Action == Allow
}

func (p *Policy) isPublic(clean string) bool {
	for _, pub := range p.PublicPaths {
		if clean == pub {
			return true
		}
	}
	for _, prefix := range p.SystemPrefixes {
		if hasSegmentPrefix(clean, prefix) {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(clean))
	for _, e := range p.AssetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// hasSegmentPrefix matches whole path segments: /planung covers
// /planung/2025/3 but not /planungx.
func hasSegmentPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}
