package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"waist/internal/core"
)

type recordedCall struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func fakeSheetsServer(t *testing.T, status int) (*httptest.Server, func() []recordedCall) {
	t.Helper()
	var mu sync.Mutex
	var calls []recordedCall

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		_ = json.NewDecoder(r.Body).Decode(&call.body)
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(context.Background(), "sheet-123", "Transactions", Credentials{}, nil,
		goption.WithEndpoint(url+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(http.DefaultClient))
	require.NoError(t, err)
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Transactions", Credentials{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SPREADSHEET_ID")
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), "sheet", "Transactions", Credentials{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNew_UnreadableCredentialFile(t *testing.T) {
	_, err := New(context.Background(), "sheet", "", Credentials{File: "/does/not/exist.json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestRows(t *testing.T) {
	rows := Rows([]core.Transaction{
		{ID: 4, Date: "2025-01-05", Category: "Food", Amount: decimal.RequireFromString("12.5"), Note: "pizza"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, []any{"ID", "Date", "Category", "Amount", "Note"}, rows[0])
	assert.Equal(t, []any{int64(4), "2025-01-05", "Food", 12.5, "pizza"}, rows[1])
}

func TestReplaceAll(t *testing.T) {
	srv, calls := fakeSheetsServer(t, http.StatusOK)
	client := newTestClient(t, srv.URL)

	err := client.ReplaceAll(context.Background(), []core.Transaction{
		{ID: 1, Date: "2025-01-05", Category: "Food", Amount: decimal.NewFromInt(10)},
		{ID: 2, Date: "2025-01-06", Category: "Bills", Amount: decimal.NewFromInt(60), Note: "power"},
	})
	require.NoError(t, err)

	got := calls()
	require.Len(t, got, 2)

	assert.Equal(t, http.MethodPost, got[0].method)
	assert.True(t, strings.HasSuffix(got[0].path, ":clear"), got[0].path)
	assert.Contains(t, got[0].path, "sheet-123")

	assert.Equal(t, http.MethodPut, got[1].method)
	assert.Contains(t, got[1].path, "Transactions!A1:E3")
	assert.Contains(t, got[1].query, "valueInputOption=USER_ENTERED")
	values, ok := got[1].body["values"].([]any)
	require.True(t, ok)
	assert.Len(t, values, 3)
}

func TestReplaceAll_Error(t *testing.T) {
	srv, calls := fakeSheetsServer(t, http.StatusForbidden)
	client := newTestClient(t, srv.URL)

	err := client.ReplaceAll(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear Transactions!A:E")
	assert.Len(t, calls(), 1)
}
