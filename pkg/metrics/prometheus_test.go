package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/pkg/types"
)

func TestPrometheusSink_IncDecision(t *testing.T) {
	sink := NewPrometheusSink()
	sink.IncDecision(types.GroupGeneral, types.VerdictBlock)
	sink.IncDecision(types.GroupGeneral, types.VerdictBlock)
	sink.IncDecision(types.GroupDeals, types.VerdictAllow)

	body := scrape(t, sink)
	assert.Contains(t, body, `saqshy_decisions_total{group_type="general",verdict="block"} 2`)
	assert.Contains(t, body, `saqshy_decisions_total{group_type="deals",verdict="allow"} 1`)
}

func TestPrometheusSink_IncAction(t *testing.T) {
	sink := NewPrometheusSink()
	sink.IncAction(types.ActionDelete, true)
	sink.IncAction(types.ActionDelete, false)

	body := scrape(t, sink)
	assert.Contains(t, body, `saqshy_actions_total{action_type="delete",outcome="ok"} 1`)
	assert.Contains(t, body, `saqshy_actions_total{action_type="delete",outcome="error"} 1`)
}

func TestPrometheusSink_ObserveAnalyzerDuration(t *testing.T) {
	sink := NewPrometheusSink()
	sink.ObserveAnalyzerDuration("content", 0.12)

	body := scrape(t, sink)
	assert.Contains(t, body, "saqshy_analyzer_duration_seconds")
	assert.Contains(t, body, `analyzer="content"`)
}

func TestPrometheusSink_IncCircuitOpen(t *testing.T) {
	sink := NewPrometheusSink()
	sink.IncCircuitOpen("llm")

	body := scrape(t, sink)
	assert.Contains(t, body, `saqshy_circuit_breaker_open_total{breaker="llm"} 1`)
}

func scrape(t *testing.T, sink *PrometheusSink) string {
	t.Helper()
	handler := sink.Handler()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return strings.ReplaceAll(rec.Body.String(), "\n\n", "\n")
}
