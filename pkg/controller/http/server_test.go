package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/pythia/pkg/controller/http"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/usecase"
)

type fakeRetriever struct {
	context  string
	passages []model.Passage
	err      error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) (string, []model.Passage, error) {
	return f.context, f.passages, f.err
}

func (f *fakeRetriever) Ready() bool { return f.context != "" }

func (f *fakeRetriever) Stats() model.IndexStats {
	return model.IndexStats{Status: "ready", ChunkCount: 3, Documents: 2, TopK: 5, ChunkSize: 512}
}

type fakeGenerator struct {
	answer string
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, query, docContext string, history []model.HistoryEntry) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestServer(ret *fakeRetriever, gen *fakeGenerator, opts ...httpctrl.Options) *httpctrl.Server {
	return httpctrl.New(usecase.New(ret, gen), opts...)
}

func TestQueryEndpoint(t *testing.T) {
	t.Run("answers a valid query", func(t *testing.T) {
		srv := newTestServer(
			&fakeRetriever{
				context:  "Use bearer tokens.",
				passages: []model.Passage{{Content: "Use bearer tokens.", Source: "auth.md"}},
			},
			&fakeGenerator{answer: "Auth uses bearer tokens."},
		)

		body := `{"query": "<@U123> how do I auth?", "user_id": "alice", "include_sources": true}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp httpctrl.QueryResponse
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Answer).Equal("Auth uses bearer tokens.")
		gt.Value(t, resp.Query).Equal("how do I auth?")
		gt.Array(t, resp.Sources).Length(1)
		gt.Bool(t, resp.ProcessingTimeMS >= 0).True()
	})

	t.Run("sources omitted by default", func(t *testing.T) {
		srv := newTestServer(
			&fakeRetriever{context: "ctx", passages: []model.Passage{{Content: "ctx", Source: "a.md"}}},
			&fakeGenerator{answer: "ok"},
		)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString(`{"query": "question?"}`))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var resp httpctrl.QueryResponse
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Array(t, resp.Sources).Length(0)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		srv := newTestServer(&fakeRetriever{}, &fakeGenerator{answer: "ok"})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("empty query after cleaning is a 400", func(t *testing.T) {
		srv := newTestServer(&fakeRetriever{}, &fakeGenerator{answer: "ok"})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString(`{"query": "<@U123>"}`))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("downstream failure is a 502 without leaking the cause", func(t *testing.T) {
		srv := newTestServer(
			&fakeRetriever{err: goerr.New("secret internal detail")},
			&fakeGenerator{answer: "ok"},
		)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewBufferString(`{"query": "question?"}`))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusBadGateway)
		gt.Bool(t, bytes.Contains(rec.Body.Bytes(), []byte("secret internal detail"))).False()
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(
		&fakeRetriever{context: "loaded"},
		&fakeGenerator{answer: "ok"},
		httpctrl.WithVersion("1.2.3"),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp httpctrl.HealthResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.Status).Equal("ok")
	gt.Value(t, resp.Version).Equal("1.2.3")
	gt.Bool(t, resp.Timestamp.IsZero()).False()
	gt.Bool(t, resp.IndexReady).True()
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(
		&fakeRetriever{context: "loaded"},
		&fakeGenerator{answer: "ok"},
		httpctrl.WithProvider(types.ProviderOpenAI),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp httpctrl.StatsResponse
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.Index.Status).Equal("ready")
	gt.Value(t, resp.Index.ChunkCount).Equal(3)
	gt.Bool(t, resp.Memory.Enabled).True()
	gt.Value(t, resp.Config.Provider).Equal("openai")
	gt.Value(t, resp.Config.TopK).Equal(5)
	gt.Value(t, resp.Config.ChunkSize).Equal(512)
}

func TestClearMemoryEndpoint(t *testing.T) {
	srv := newTestServer(&fakeRetriever{context: "ctx"}, &fakeGenerator{answer: "ok"})

	// Seed a conversation through the query endpoint
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query",
		bytes.NewBufferString(`{"query": "question?", "user_id": "alice"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/memory/alice", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var resp map[string]string
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp["status"]).Equal("cleared")
	gt.Value(t, resp["user_id"]).Equal("alice")

	// deleting again is still a 200
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/memory/alice", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}

func TestSlackRouteDisabledByDefault(t *testing.T) {
	srv := newTestServer(&fakeRetriever{}, &fakeGenerator{answer: "ok"})

	req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}
