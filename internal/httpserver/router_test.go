package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartshelf/shelf-api/internal/analysis"
)

const approvedResponse = `CRITÉRIOS DE VALIDAÇÃO:
1. Nome e logo visíveis: Verdadeiro
2. Preço do produto visível: Verdadeiro
3. Marcas concorrentes sem destaque: Verdadeiro
4. Disposição organizada e visualmente agradável: Verdadeiro

Validada com sucesso
Motivos da aprovação:
- Logo em destaque`

type stubInvoker struct {
	text  string
	err   error
	calls int
}

func (s *stubInvoker) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, float64, error) {
	s.calls++
	return s.text, 0.0007, s.err
}

type memStore struct {
	entries []analysis.LogEntry
}

func (m *memStore) Append(ctx context.Context, entry *analysis.LogEntry) (*analysis.LogEntry, error) {
	out := *entry
	out.ID = int64(len(m.entries) + 1)
	if out.ProductNames == nil {
		out.ProductNames = []string{}
	}
	m.entries = append(m.entries, out)
	return &out, nil
}

func (m *memStore) Query(ctx context.Context, limit int, status analysis.Status) ([]analysis.LogEntry, error) {
	var out []analysis.LogEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, invoker analysis.Invoker, store analysis.LogStore) *httptest.Server {
	t.Helper()
	svc := analysis.NewService(invoker, store)
	ts := httptest.NewServer(NewRouter(svc, store))
	t.Cleanup(ts.Close)
	return ts
}

func analyzeBody(t *testing.T, imageField, contentType, products string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if imageField != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+imageField+`"; filename="shelf.jpg"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		part.Write([]byte{0xff, 0xd8, 0xff})
	}
	require.NoError(t, w.WriteField("products", products))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandleAnalyze_Success(t *testing.T) {
	invoker := &stubInvoker{text: approvedResponse}
	store := &memStore{}
	ts := newTestServer(t, invoker, store)

	body, contentType := analyzeBody(t, "file", "image/jpeg", `[{"name":"Coca-Cola","description":"lata 350ml"}]`)
	resp, err := http.Post(ts.URL+"/analyze", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result analysis.AnalysisResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, analysis.StatusApproved, result.Status)
	assert.Equal(t, analysis.VerdictTrue, result.Criteria.Organized)
	assert.Equal(t, "- Logo em destaque", result.Detail)
	assert.Len(t, store.entries, 1)
}

func TestHandleAnalyze_LegacyImageField(t *testing.T) {
	invoker := &stubInvoker{text: approvedResponse}
	ts := newTestServer(t, invoker, &memStore{})

	body, contentType := analyzeBody(t, "image", "image/png", `[{"name":"Coca-Cola","description":"lata 350ml"}]`)
	resp, err := http.Post(ts.URL+"/analyze", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, invoker.calls)
}

func TestHandleAnalyze_TooManyProducts(t *testing.T) {
	invoker := &stubInvoker{text: approvedResponse}
	store := &memStore{}
	ts := newTestServer(t, invoker, store)

	products := `[
		{"name":"A","description":"a"},
		{"name":"B","description":"b"},
		{"name":"C","description":"c"},
		{"name":"D","description":"d"}
	]`
	body, contentType := analyzeBody(t, "file", "image/jpeg", products)
	resp, err := http.Post(ts.URL+"/analyze", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, invoker.calls)
	// The rejection is still logged.
	require.Len(t, store.entries, 1)
	assert.Equal(t, analysis.StatusError, store.entries[0].Status)
}

func TestHandleAnalyze_NotAnImage(t *testing.T) {
	ts := newTestServer(t, &stubInvoker{}, &memStore{})

	body, contentType := analyzeBody(t, "file", "text/plain", `[{"name":"A","description":"a"}]`)
	resp, err := http.Post(ts.URL+"/analyze", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Contains(t, errBody["error"], "must be an image")
}

func TestHandleAnalyze_UpstreamTimeout(t *testing.T) {
	ts := newTestServer(t, &stubInvoker{err: context.DeadlineExceeded}, &memStore{})

	body, contentType := analyzeBody(t, "file", "image/jpeg", `[{"name":"A","description":"a"}]`)
	resp, err := http.Post(ts.URL+"/analyze", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestHandleStats(t *testing.T) {
	store := &memStore{entries: []analysis.LogEntry{
		{ID: 1, Status: analysis.StatusApproved, CostEstimate: 0.0005, ExecutionTime: 1.2},
		{ID: 2, Status: analysis.StatusError},
	}}
	ts := newTestServer(t, &stubInvoker{}, store)

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap analysis.StatsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 2, snap.TotalAnalyses)
	assert.Equal(t, 1, snap.SuccessfulAnalyses)
	assert.InDelta(t, 0.0005, snap.TotalCost, 1e-9)
	assert.InDelta(t, 1.2, snap.AverageExecutionTime, 1e-9)
}

func TestHandleAnalyses_OrderAndLimit(t *testing.T) {
	store := &memStore{entries: []analysis.LogEntry{
		{ID: 1, Status: analysis.StatusApproved, ProductNames: []string{"A"}},
		{ID: 2, Status: analysis.StatusPending, ProductNames: []string{"B"}},
		{ID: 3, Status: analysis.StatusError, ProductNames: []string{}},
	}}
	ts := newTestServer(t, &stubInvoker{}, store)

	resp, err := http.Get(ts.URL + "/analyses?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []logEntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].ID)
	assert.Equal(t, int64(2), entries[1].ID)
}

func TestHandleAnalyses_UnknownStatus(t *testing.T) {
	ts := newTestServer(t, &stubInvoker{}, &memStore{})

	resp, err := http.Get(ts.URL + "/analyses?status=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleExport(t *testing.T) {
	store := &memStore{entries: []analysis.LogEntry{
		{ID: 1, Status: analysis.StatusApproved, ProductNames: []string{"Coca-Cola"}},
	}}
	ts := newTestServer(t, &stubInvoker{}, store)

	resp, err := http.Get(ts.URL + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "analises.xlsx")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &stubInvoker{}, &memStore{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
