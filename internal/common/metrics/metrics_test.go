package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInvariantViolationsCounter(t *testing.T) {
	before := testutil.ToFloat64(InvariantViolations.WithLabelValues("Insight", "voiceCount"))
	InvariantViolations.WithLabelValues("Insight", "voiceCount").Inc()
	after := testutil.ToFloat64(InvariantViolations.WithLabelValues("Insight", "voiceCount"))

	assert.Equal(t, before+1, after)
}

func TestExtractorCallsLabels(t *testing.T) {
	ExtractorCalls.WithLabelValues("http", "success").Inc()
	ExtractorCalls.WithLabelValues("http", "open").Inc()

	assert.GreaterOrEqual(t, testutil.ToFloat64(ExtractorCalls.WithLabelValues("http", "open")), 1.0)
}
