package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordError("optimization")
	r.RecordError("optimization")
	r.SetModelLoaded("risk_scorer", true)
	r.SetModelLoaded("nav_predictor", false)
	r.RecordRetrain("done")
	r.RecordLatency("predict_nav", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("optimization")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelLoaded.WithLabelValues("risk_scorer")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.modelLoaded.WithLabelValues("nav_predictor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.retrainsDone.WithLabelValues("done")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
