package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kt-primus/einsatzplanung/internal/auth"
)

var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "primus",
	Subsystem: "guard",
	Name:      "decisions_total",
	Help:      "Route guard decisions broken down by action and matched rule.",
}, []string{"action", "reason"})

// Middleware applies the policy to every request. The session must already
// be loaded; a request without one is evaluated as role none.
func Middleware(p *Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := p.Evaluate(c.Request.URL.Path, auth.RoleFrom(c))
		decisions.WithLabelValues(d.Action.String(), d.Reason).Inc()

		if d.Action == Redirect {
			c.Redirect(http.StatusFound, d.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}
