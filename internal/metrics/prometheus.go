package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	AuthCodesIssuedTotal         prometheus.Counter
	TokensIssuedTotal            prometheus.Counter
	TokensRefreshedTotal         prometheus.Counter
	ClientRegistrationsTotal     prometheus.Counter
	TokenValidationFailuresTotal prometheus.Counter
)

func init() {
	AuthCodesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_auth_codes_issued_total",
		Help: "Total number of authorization codes issued.",
	})
	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_tokens_issued_total",
		Help: "Total number of access/refresh token pairs issued.",
	})
	TokensRefreshedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_tokens_refreshed_total",
		Help: "Total number of refresh-token grants served.",
	})
	ClientRegistrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_client_registrations_total",
		Help: "Total number of dynamically registered OAuth clients.",
	})
	TokenValidationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_token_validation_failures_total",
		Help: "Total number of bearer credentials rejected by validation.",
	})
}

// Register registers the custom metrics with the given registerer.
// It should be called once at application startup.
func Register(reg prometheus.Registerer) {
	collectors := []prometheus.Collector{
		AuthCodesIssuedTotal,
		TokensIssuedTotal,
		TokensRefreshedTotal,
		ClientRegistrationsTotal,
		TokenValidationFailuresTotal,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			log.Warn().Err(err).Msg("Failed to register Prometheus metric")
		}
	}
}
