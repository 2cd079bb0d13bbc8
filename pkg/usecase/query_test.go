package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/domain/types"
	"github.com/secmon-lab/pythia/pkg/service/answer"
	"github.com/secmon-lab/pythia/pkg/service/memory"
	"github.com/secmon-lab/pythia/pkg/usecase"
)

type fakeRetriever struct {
	context  string
	passages []model.Passage
	err      error
	queries  []string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) (string, []model.Passage, error) {
	f.queries = append(f.queries, query)
	return f.context, f.passages, f.err
}

func (f *fakeRetriever) Ready() bool { return f.context != "" }

func (f *fakeRetriever) Stats() model.IndexStats {
	return model.IndexStats{Status: "ready"}
}

type fakeGenerator struct {
	answer  string
	err     error
	calls   int
	lastCtx string
	history []model.HistoryEntry
}

func (f *fakeGenerator) Generate(ctx context.Context, query, docContext string, history []model.HistoryEntry) (string, error) {
	f.calls++
	f.lastCtx = docContext
	f.history = history
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestProcessQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		ret := &fakeRetriever{
			context:  "Use bearer tokens.",
			passages: []model.Passage{{Content: "Use bearer tokens.", Source: "auth.md"}},
		}
		gen := &fakeGenerator{answer: "Auth uses bearer tokens."}
		uc := usecase.New(ret, gen)

		result, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "<@U123> how do I auth?", UserID: "alice"})
		gt.NoError(t, err).Required()

		gt.Value(t, result.Answer).Equal("Auth uses bearer tokens.")
		gt.Value(t, result.Query).Equal("how do I auth?")
		gt.Array(t, result.Sources).Length(0)
		gt.Bool(t, result.Elapsed >= 0).True()

		// retrieval saw the cleaned query, not the raw one
		gt.Array(t, ret.queries).Length(1)
		gt.Value(t, ret.queries[0]).Equal("how do I auth?")
	})

	t.Run("sources included only on request", func(t *testing.T) {
		ret := &fakeRetriever{
			context:  "ctx",
			passages: []model.Passage{{Content: "ctx", Source: "a.md"}},
		}
		uc := usecase.New(ret, &fakeGenerator{answer: "ok"})

		result, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "question?", IncludeSources: true})
		gt.NoError(t, err).Required()
		gt.Array(t, result.Sources).Length(1)
	})

	t.Run("empty query after cleaning is a validation error", func(t *testing.T) {
		ret := &fakeRetriever{}
		uc := usecase.New(ret, &fakeGenerator{answer: "ok"})

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "<@U123> :wave:"})
		gt.Error(t, err)
		gt.Bool(t, types.IsValidation(err)).True()
		gt.Array(t, ret.queries).Length(0)
	})

	t.Run("empty retrieval context becomes the sentinel", func(t *testing.T) {
		gen := &fakeGenerator{answer: "nothing found"}
		uc := usecase.New(&fakeRetriever{}, gen)

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "obscure question?"})
		gt.NoError(t, err).Required()
		gt.Value(t, gen.lastCtx).Equal(answer.NoContextSentinel)
	})

	t.Run("retrieval failure is a downstream error", func(t *testing.T) {
		ret := &fakeRetriever{err: goerr.New("embedding API down")}
		gen := &fakeGenerator{answer: "ok"}
		uc := usecase.New(ret, gen)

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "question?"})
		gt.Error(t, err)
		gt.Bool(t, types.IsDownstream(err)).True()
		gt.Value(t, gen.calls).Equal(0)
	})

	t.Run("generation failure is a downstream error", func(t *testing.T) {
		uc := usecase.New(&fakeRetriever{context: "ctx"}, &fakeGenerator{err: goerr.New("quota exceeded")})

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "question?"})
		gt.Error(t, err)
		gt.Bool(t, types.IsDownstream(err)).True()
	})
}

func TestProcessQueryMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("successful exchange is recorded user first", func(t *testing.T) {
		store := memory.New()
		uc := usecase.New(&fakeRetriever{context: "ctx"}, &fakeGenerator{answer: "the answer"}, usecase.WithMemory(store))

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "question?", UserID: "alice"})
		gt.NoError(t, err).Required()

		history := store.GetHistory("alice", 0)
		gt.Array(t, history).Length(2)
		gt.Value(t, history[0].Role).Equal(types.RoleUser)
		gt.Value(t, history[0].Content).Equal("question?")
		gt.Value(t, history[1].Role).Equal(types.RoleAssistant)
		gt.Value(t, history[1].Content).Equal("the answer")
	})

	t.Run("failed generation records nothing", func(t *testing.T) {
		store := memory.New()
		uc := usecase.New(&fakeRetriever{context: "ctx"}, &fakeGenerator{err: goerr.New("boom")}, usecase.WithMemory(store))

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "question?", UserID: "alice"})
		gt.Error(t, err)
		gt.Array(t, store.GetHistory("alice", 0)).Length(0)
	})

	t.Run("prior history reaches the generator", func(t *testing.T) {
		store := memory.New()
		store.AddMessage("alice", types.RoleUser, "earlier question")
		store.AddMessage("alice", types.RoleAssistant, "earlier answer")

		gen := &fakeGenerator{answer: "ok"}
		uc := usecase.New(&fakeRetriever{context: "ctx"}, gen, usecase.WithMemory(store))

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "follow-up?", UserID: "alice"})
		gt.NoError(t, err).Required()

		gt.Array(t, gen.history).Length(2)
		gt.Value(t, gen.history[0].Content).Equal("earlier question")
	})

	t.Run("anonymous queries leave no trace", func(t *testing.T) {
		store := memory.New()
		uc := usecase.New(&fakeRetriever{context: "ctx"}, &fakeGenerator{answer: "ok"}, usecase.WithMemory(store))

		_, err := uc.ProcessQuery(ctx, model.QueryInput{Query: "question?"})
		gt.NoError(t, err).Required()
		gt.Value(t, store.Stats().ActiveConversations).Equal(0)
	})
}

func TestClearMemory(t *testing.T) {
	store := memory.New()
	store.AddMessage("alice", types.RoleUser, "question")
	uc := usecase.New(&fakeRetriever{}, &fakeGenerator{}, usecase.WithMemory(store))

	uc.ClearMemory("alice")
	gt.Array(t, store.GetHistory("alice", 0)).Length(0)

	// idempotent
	uc.ClearMemory("alice")
}

func TestCleanText(t *testing.T) {
	uc := usecase.New(&fakeRetriever{}, &fakeGenerator{})
	gt.Value(t, uc.CleanText("<@U123> hello   there")).Equal("hello there")
	gt.Bool(t, strings.Contains(uc.CleanText("see <https://example.com|docs>"), "docs")).True()
}
