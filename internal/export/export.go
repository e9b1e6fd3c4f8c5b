package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kt-primus/einsatzplanung/internal/planning"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Artifact is a rendered month ready for download.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Renderer turns the current month view into a document.
type Renderer interface {
	Format() string
	Render(ctx context.Context, v *planning.View) (*Artifact, error)
}

// Registry looks renderers up by format name.
type Registry struct {
	renderers map[string]Renderer
}

func NewRegistry(rs ...Renderer) *Registry {
	reg := &Registry{renderers: map[string]Renderer{}}
	for _, r := range rs {
		reg.renderers[r.Format()] = r
	}
	return reg
}

func (r *Registry) Get(format string) (Renderer, error) {
	rd, ok := r.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return rd, nil
}

func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.renderers))
	for f := range r.renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FileName is Dienstplan_<year>_<MM>.<ext>.
func FileName(year, month int, ext string) string {
	return fmt.Sprintf("Dienstplan_%04d_%02d.%s", year, month, ext)
}
