package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "adtopia_build_info",
		Help: "Always 1. Labels identify the running adtopia binary.",
	},
	[]string{"version", "commit", "go_version"},
)

// SetBuildInfo is called once from main with the -ldflags values.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
