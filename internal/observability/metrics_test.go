package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of the named counter family in reg.
func counterValue(t *testing.T, reg prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestNewMetricsWith_Isolated(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith("test", reg)

	m.RPCErrors.WithLabelValues("getBalance").Inc()
	m.RPCErrors.WithLabelValues("getBalance").Inc()
	m.WorkflowTransitions.WithLabelValues("SUPPLY_MINTED").Inc()

	assert.Equal(t, 2.0, counterValue(t, reg, "test_solana_rpc_errors_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "test_provision_state_transitions_total"))
}

func TestRecordHelpers(t *testing.T) {
	name := "taxed_token_provision_transactions_confirmed_total"
	before := counterValue(t, prometheus.DefaultGatherer, name)
	RecordTransaction("mint", errors.New("boom"))
	RecordTransaction("mint", nil)
	assert.Equal(t, before+2, counterValue(t, prometheus.DefaultGatherer, name))

	name = "taxed_token_database_query_errors_total"
	before = counterValue(t, prometheus.DefaultGatherer, name)
	RecordDBQuery("postgres", "insert", 0.01, nil)
	RecordDBQuery("postgres", "insert", 0.01, errors.New("dup"))
	assert.Equal(t, before+1, counterValue(t, prometheus.DefaultGatherer, name))
}

func TestHandler(t *testing.T) {
	RecordRPCLatency("getLatestBlockhash", 0.2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "taxed_token_solana_rpc_call_latency_seconds"))
}
