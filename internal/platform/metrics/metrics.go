package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. Construct once in
// main; services treat a nil *Metrics as "metrics disabled".
type Metrics struct {
	AuthoritiesRegistered prometheus.Counter
	AuthorityVerifySet    prometheus.Counter
	AdminChanges          *prometheus.CounterVec
	RecordsCreated        *prometheus.CounterVec
	RecordMutations       *prometheus.CounterVec
	ValidityChecks        *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AuthoritiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credentry_authorities_registered_total",
			Help: "Total number of authorities registered",
		}),
		AuthorityVerifySet: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credentry_authority_verifications_total",
			Help: "Total number of admin verification flag changes on authorities",
		}),
		AdminChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credentry_admin_changes_total",
			Help: "Total number of admin set mutations",
		}, []string{"op"}),
		RecordsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credentry_records_created_total",
			Help: "Total number of records created, by registry and creation path",
		}, []string{"registry", "path"}),
		RecordMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credentry_record_mutations_total",
			Help: "Total number of record status/expiration mutations, by registry and operation",
		}, []string{"registry", "op"}),
		ValidityChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credentry_validity_checks_total",
			Help: "Total number of validity evaluations, by registry and result",
		}, []string{"registry", "result"}),
	}
}
