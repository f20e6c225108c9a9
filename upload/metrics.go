package upload

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StageCreate    = "create"
	StagePublicize = "publicize"
	StageVerify    = "verify"
	StageForward   = "forward"

	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics counts the outcome of each upload stage. A nil *Metrics is valid and counts
// nothing.
type Metrics struct {
	stages *prometheus.CounterVec
}

// NewMetrics registers the stage counter with reg, reusing an existing counter if one
// has already been registered under the same name.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	stages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sheets_relay",
			Subsystem: "upload",
			Name:      "stage_total",
			Help:      "Upload flow stages by outcome.",
		},
		[]string{"stage", "outcome"},
	)

	if err := reg.Register(stages); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}

		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}

		stages = existing
	}

	return &Metrics{
		stages: stages,
	}, nil
}

func (m *Metrics) count(stage, outcome string) {
	if m != nil && m.stages != nil {
		m.stages.WithLabelValues(stage, outcome).Inc()
	}
}
