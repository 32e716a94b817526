package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/walletflow/analysis"
	"github.com/meikuraledutech/walletflow/compiler"
	"github.com/meikuraledutech/walletflow/memory"
	"github.com/meikuraledutech/walletflow/metrics"
	"github.com/meikuraledutech/walletflow/simulate"
	"github.com/meikuraledutech/walletflow/wallet"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	store := memory.New()
	m := metrics.NewCollector("test")
	s := &Server{
		Store: store,
		Compiler: compiler.New(
			compiler.WithClock(func() time.Time { return fixedNow }),
			compiler.WithObserver(m),
		),
		Simulator: simulate.New(),
		Analyzer:  analysis.NewHeuristic(nil),
		Wallets:   wallet.NewService(store, nil),
		Metrics:   m,
		Clock:     func() time.Time { return fixedNow },
	}
	return s, s.App()
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

const walletTx = `{
	"version": "1.0.0",
	"network": "devnet",
	"nodes": [
		{"id": "1", "type": "wallet", "data": {"label": "W"}},
		{"id": "2", "type": "transaction", "data": {"amount": 1}}
	],
	"edges": [{"id": "e1", "source": "1", "target": "2"}]
}`

func TestCompile(t *testing.T) {
	s, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/compile", `{"program": `+walletTx+`, "network": "testnet"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	program := body["program"].(map[string]any)
	assert.Equal(t, "INIT_WALLET\nLOAD_KEYPAIR\nCREATE_TX\nSET_RECIPIENT\nSET_AMOUNT\nSIGN_TX", program["bytecode"])
	assert.Equal(t, 6000.0, program["estimatedGas"])
	assert.Equal(t, "testnet", program["network"])
	assert.Equal(t, "2025-06-01T12:00:00.000Z", program["compiledAt"])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.Compilations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.HTTPRequests.WithLabelValues("POST", "/api/compile", "200")))
}

func TestCompileAcceptsFlowKey(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/compile", `{"flow": `+walletTx+`}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "devnet", body["program"].(map[string]any)["network"])
}

func TestCompileRejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		error  string
		errors []any
	}{
		{
			name:   "missing nodes",
			body:   `{"program": {"edges": []}}`,
			error:  "Invalid program structure",
			errors: []any{"Invalid program structure"},
		},
		{
			name:   "no program",
			body:   `{}`,
			error:  "Invalid program structure",
			errors: []any{"Invalid program structure"},
		},
		{
			name:   "malformed body",
			body:   `{"program":`,
			error:  "Invalid JSON format",
			errors: []any{"Invalid JSON format"},
		},
		{
			name:  "strict",
			body:  `{"program": {"nodes": [], "edges": []}, "options": {"strict": true}}`,
			error: "Invalid program structure",
			errors: []any{
				"Missing version field",
				"Missing network field",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, app := newTestServer(t)
			status, body := do(t, app, http.MethodPost, "/api/compile", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.error, body["error"])
			assert.Equal(t, tt.errors, body["errors"])
		})
	}
}

func TestCompileBatch(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/compile/batch",
		`{"flows": [`+walletTx+`, {"edges": []}, {"nodes": [{"id": "t", "type": "token", "data": {}}]}]}`)
	require.Equal(t, http.StatusOK, status)

	results := body["results"].([]any)
	require.Len(t, results, 3)
	assert.Equal(t, 6000.0, results[0].(map[string]any)["program"].(map[string]any)["estimatedGas"])
	assert.Equal(t, []any{"Invalid program structure"}, results[1].(map[string]any)["errors"])
	assert.Equal(t, 3000.0, results[2].(map[string]any)["program"].(map[string]any)["estimatedGas"])

	status, body = do(t, app, http.MethodPost, "/api/compile/batch", `{"flows": []}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No flows provided", body["error"])
}

func TestValidate(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/validate", walletTx)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	_, body = do(t, app, http.MethodPost, "/api/validate?mode=strict", `{"version": "1.0.0", "network": "devnet", "nodes": [{"id": "a"}], "edges": []}`)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, []any{"Node 0: Missing type", "Node 0: Missing data"}, body["errors"])

	_, body = do(t, app, http.MethodPost, "/api/validate", `nope`)
	assert.Equal(t, []any{"Invalid JSON format"}, body["errors"])
}

func TestNodeCatalogAndDefaults(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodGet, "/api/nodes", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["nodes"], 13)

	status, body = do(t, app, http.MethodGet, "/api/nodes/wallet/defaults?network=testnet", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["known"])
	assert.Equal(t, "testnet", body["data"].(map[string]any)["network"])

	_, body = do(t, app, http.MethodGet, "/api/nodes/mystery/defaults", "")
	assert.Equal(t, false, body["known"])
	assert.Equal(t, map[string]any{"label": "Node"}, body["data"])

	status, _ = do(t, app, http.MethodGet, "/api/nodes/wallet/defaults?network=moon", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSimulate(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/simulate", `{"flow": `+walletTx+`}`)
	require.Equal(t, http.StatusOK, status)
	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, 5000.0, result["totalGasUsed"])
	assert.Equal(t, 4000.0, result["executionTime"])
	assert.Len(t, result["steps"], 4)

	_, compiled := do(t, app, http.MethodPost, "/api/compile", `{"program": `+walletTx+`}`)
	program, err := json.Marshal(compiled["program"])
	require.NoError(t, err)
	status, body = do(t, app, http.MethodPost, "/api/simulate", `{"program": `+string(program)+`}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, compiled["program"].(map[string]any)["id"], body["result"].(map[string]any)["programId"])
}

func TestContracts(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/contract/generate", `{"flow": `+walletTx+`, "network": "testnet"}`)
	require.Equal(t, http.StatusOK, status)
	c := body["contract"].(map[string]any)
	assert.Equal(t, "wallet_flow", c["contract_type"])
	assert.Equal(t, "testnet", c["network"])
	assert.Len(t, c["functions"], 2)

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	status, body = do(t, app, http.MethodPost, "/api/contract/validate", string(raw))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
}

func TestAnalyze(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/groq/analyze", `{"network": "devnet"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid flow structure", body["error"])

	status, body = do(t, app, http.MethodPost, "/api/groq/analyze", `{"flow": `+walletTx+`, "options": {"depth": "extreme"}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "depth must be one of")

	status, body = do(t, app, http.MethodPost, "/api/groq/analyze", `{"flow": `+walletTx+`}`)
	require.Equal(t, http.StatusOK, status)
	report := body["analysis"].(map[string]any)
	assert.Equal(t, "Low", report["flowComplexity"])
	assert.NotEmpty(t, report["suggestions"])
}

func TestWallets(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/api/wallet/generate", `{"network": "devnet", "namespace": "alice"}`)
	require.Equal(t, http.StatusOK, status)
	w := body["wallet"].(map[string]any)
	pk := w["publicKey"].(string)
	assert.NotEmpty(t, w["privateKey"])

	status, body = do(t, app, http.MethodPost, "/api/faucet", `{"publicKey": "`+pk+`", "network": "mainnet"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Faucet not available on mainnet", body["error"])

	status, body = do(t, app, http.MethodPost, "/api/faucet", `{"publicKey": "not-base58!", "network": "devnet"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid public key", body["error"])

	status, body = do(t, app, http.MethodPost, "/api/faucet", `{"publicKey": "`+pk+`", "network": "devnet", "namespace": "alice"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2.0, body["amount"])
	assert.Equal(t, 2.0, body["balance"])
	assert.NotEmpty(t, body["signature"])

	_, body = do(t, app, http.MethodGet, "/api/wallets/alice", "")
	list := body["wallets"].([]any)
	require.Len(t, list, 1)
	record := list[0].(map[string]any)
	assert.Equal(t, pk, record["publicKey"])
	assert.Equal(t, 2.0, record["balance"])
	assert.NotContains(t, record, "privateKey")

	status, _ = do(t, app, http.MethodPost, "/api/wallets/bob", `{"publicKey": "`+pk+`", "privateKey": "secret"}`)
	assert.Equal(t, http.StatusCreated, status)
	_, body = do(t, app, http.MethodGet, "/api/wallets/bob", "")
	assert.NotContains(t, body["wallets"].([]any)[0], "privateKey")

	status, _ = do(t, app, http.MethodDelete, "/api/wallets/bob/"+pk, "")
	assert.Equal(t, http.StatusNoContent, status)
	_, body = do(t, app, http.MethodGet, "/api/wallets/bob", "")
	assert.Empty(t, body["wallets"])
}

func TestFlowLifecycle(t *testing.T) {
	_, app := newTestServer(t)

	status, _ := do(t, app, http.MethodPost, "/schema", "")
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodPost, "/flows", `{"id": "f1", "nodes": [
		{"id": "w", "type": "wallet", "data": {}},
		{"id": "t", "type": "transaction", "data": {}}
	], "edges": [{"source": "w", "target": "t"}]}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "devnet", body["network"])
	assert.Equal(t, "general", body["metadata"].(map[string]any)["flowType"])

	status, body = do(t, app, http.MethodPost, "/flows/f1/edges", `{"source": "t", "target": "w"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "cycle detected", body["error"])

	status, _ = do(t, app, http.MethodPost, "/flows/f1/edges", `{"source": "t", "target": "ghost"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = do(t, app, http.MethodPost, "/flows/f1/nodes", `{"type": "token"}`)
	require.Equal(t, http.StatusCreated, status)
	tokenID := body["id"].(string)

	status, body = do(t, app, http.MethodGet, "/flows/f1/nodes/"+tokenID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Token Transfer", body["data"].(map[string]any)["label"])

	status, _ = do(t, app, http.MethodPost, "/flows/f1/nodes", `{"id": "w", "type": "token"}`)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = do(t, app, http.MethodPost, "/flows/nope/nodes", `{"type": "token"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, http.MethodPost, "/flows/f1/edges", `{"source": "t", "target": "`+tokenID+`"}`)
	require.Equal(t, http.StatusCreated, status)
	edgeID := body["id"].(string)
	assert.Equal(t, "t-"+tokenID, edgeID)

	status, _ = do(t, app, http.MethodPut, "/flows/f1/nodes/"+tokenID, `{"type": "token", "data": {"label": "Swap"}}`)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, app, http.MethodPut, "/flows/f1/nodes/ghost", `{"type": "token"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, http.MethodPost, "/flows/f1/compile", "")
	require.Equal(t, http.StatusCreated, status)
	program := body["program"].(map[string]any)
	assert.Equal(t, "f1", program["flowId"])
	assert.Equal(t, 9000.0, program["estimatedGas"])

	status, body = do(t, app, http.MethodGet, "/programs/"+program["id"].(string), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, program["bytecode"], body["bytecode"])

	status, _ = do(t, app, http.MethodDelete, "/flows/f1/edges/"+edgeID, "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, app, http.MethodDelete, "/flows/f1/nodes/w", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = do(t, app, http.MethodGet, "/flows/f1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["nodes"], 2)
	assert.Empty(t, body["edges"])

	status, _ = do(t, app, http.MethodDelete, "/flows/f1", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, body = do(t, app, http.MethodGet, "/flows/f1", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "flow not found", body["error"])
	status, _ = do(t, app, http.MethodGet, "/programs/"+program["id"].(string), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSaveFlowRejectsCycle(t *testing.T) {
	_, app := newTestServer(t)

	status, body := do(t, app, http.MethodPost, "/flows", `{"nodes": [{"id": "a"}, {"id": "b"}],
		"edges": [{"source": "a", "target": "b"}, {"source": "b", "target": "a"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "cycle detected", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, app := newTestServer(t)

	do(t, app, http.MethodGet, "/api/nodes", "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `test_http_requests_total{method="GET",route="/api/nodes",status="200"} 1`)
}

func TestRecoversPanics(t *testing.T) {
	_, app := newTestServer(t)
	app.Get("/boom", func(fiber.Ctx) error { panic("boom") })

	status, body := do(t, app, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["error"])

	status, _ = do(t, app, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRequestID(t *testing.T) {
	_, app := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nodes", nil)
	req.Header.Set(requestIDHeader, "abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc", resp.Header.Get(requestIDHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/nodes", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Len(t, resp.Header.Get(requestIDHeader), 36)
}

func TestValidateAndCompileAgree(t *testing.T) {
	bodies := []string{
		`{"version": 2, "nodes": [{"id": "a", "type": "wallet", "data": {}}]}`,
		`{"nodes": [{"id": "a", "type": "wallet", "data": {}}], "edges": {}}`,
		`{"nodes": [{"id": 7, "type": "wallet", "data": {}}]}`,
		`{"nodes": [{"id": "a", "type": "token", "position": "top"}]}`,
		`{"nodes": {}}`,
	}

	for _, flow := range bodies {
		t.Run(flow, func(t *testing.T) {
			_, app := newTestServer(t)

			_, verdict := do(t, app, http.MethodPost, "/api/validate", flow)
			status, _ := do(t, app, http.MethodPost, "/api/compile", `{"program": `+flow+`}`)

			if verdict["ok"] == true {
				assert.Equal(t, http.StatusOK, status)
			} else {
				assert.Equal(t, http.StatusBadRequest, status)
			}
		})
	}
}
