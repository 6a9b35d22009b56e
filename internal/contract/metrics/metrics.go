package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the contract module.
// Tracks mutation counts, persistence health and save durations on a private
// registry so a session can dump them to a textfile on exit.
type Metrics struct {
	registry *prometheus.Registry

	ContractsCreated      prometheus.Counter
	ContractsUpdated      prometheus.Counter
	ContractsDeleted      prometheus.Counter
	InconsistentEdits     prometheus.Counter
	LoadLinesSkipped      prometheus.Counter
	PersistenceFailures   *prometheus.CounterVec
	SaveDuration          prometheus.Histogram
	ContractsInCollection prometheus.Gauge
}

// New creates a new Metrics instance with all contract module metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ContractsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "contractbook_contracts_created_total",
			Help: "Total number of contracts created",
		}),
		ContractsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "contractbook_contracts_updated_total",
			Help: "Total number of contract edits committed",
		}),
		ContractsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "contractbook_contracts_deleted_total",
			Help: "Total number of contracts deleted",
		}),
		InconsistentEdits: factory.NewCounter(prometheus.CounterOpts{
			Name: "contractbook_inconsistent_date_edits_total",
			Help: "Edits committed while leaving the contract dates inconsistent",
		}),
		LoadLinesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contractbook_load_lines_skipped_total",
			Help: "Stored lines skipped at load because they failed to parse",
		}),
		PersistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contractbook_persistence_failures_total",
			Help: "Failed reads or writes of the data file",
		}, []string{"operation"}),
		SaveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contractbook_save_duration_seconds",
			Help:    "Duration of full data file rewrites",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
		ContractsInCollection: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contractbook_contracts",
			Help: "Number of contracts currently held",
		}),
	}
}

// IncrementCreated records a successful contract creation.
func (m *Metrics) IncrementCreated() {
	m.ContractsCreated.Inc()
}

// IncrementUpdated records a committed edit.
func (m *Metrics) IncrementUpdated() {
	m.ContractsUpdated.Inc()
}

// IncrementDeleted records a deletion.
func (m *Metrics) IncrementDeleted() {
	m.ContractsDeleted.Inc()
}

// IncrementInconsistentEdit records an edit that left dates inconsistent.
func (m *Metrics) IncrementInconsistentEdit() {
	m.InconsistentEdits.Inc()
}

// AddSkippedLines records lines dropped during load.
func (m *Metrics) AddSkippedLines(n int) {
	m.LoadLinesSkipped.Add(float64(n))
}

// IncrementPersistenceFailure records a failed "load" or "save".
func (m *Metrics) IncrementPersistenceFailure(operation string) {
	m.PersistenceFailures.WithLabelValues(operation).Inc()
}

// ObserveSave records the duration of a save.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSave(start time.Time) {
	m.SaveDuration.Observe(time.Since(start).Seconds())
}

// SetContracts records the collection size.
func (m *Metrics) SetContracts(n int) {
	m.ContractsInCollection.Set(float64(n))
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes every metric in the text exposition format, suitable
// for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
