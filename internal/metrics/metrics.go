package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eugenenazirov/configvars/pkg/configvars"
)

const namespace = "configvars"

// Recorder exports resolution metrics.
//
// Metrics:
//   - configvars_resolutions_total: resolutions by kind (config, secret) and source
//   - configvars_variables: registered variables by kind after the last reload
//   - configvars_reloads_total: reloads by result (ok, error)
type Recorder struct {
	resolutions *prometheus.CounterVec
	variables   *prometheus.GaugeVec
	reloads     *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of resolved configuration variables",
			},
			[]string{"kind", "source"},
		),
		variables: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "variables",
				Help:      "Number of registered configuration variables",
			},
			[]string{"kind"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "Total number of configuration reloads",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(r.resolutions, r.variables, r.reloads)
	return r
}

// ObserveResolution implements configvars.Observer.
func (r *Recorder) ObserveResolution(res configvars.Resolution) {
	r.resolutions.WithLabelValues(kind(res.Secret), string(res.Source)).Inc()
}

// SetVariables updates the registered variable gauges.
func (r *Recorder) SetVariables(vars []configvars.ConfigVariable) {
	var configs, secrets int
	for _, v := range vars {
		if v.Secret {
			secrets++
		} else {
			configs++
		}
	}
	r.variables.WithLabelValues("config").Set(float64(configs))
	r.variables.WithLabelValues("secret").Set(float64(secrets))
}

// ObserveReload counts a reload attempt.
func (r *Recorder) ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.reloads.WithLabelValues(result).Inc()
}

func kind(secret bool) string {
	if secret {
		return "secret"
	}
	return "config"
}
