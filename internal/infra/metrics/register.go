package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register queues collectors from each file's init. Nothing reaches the
// default registry until main calls MustRegister.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister is safe to call more than once; cmd/app and tests both do.
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}

// norm keeps label values lower-case so Stripe and config spellings collapse.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
