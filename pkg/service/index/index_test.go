package index_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/service/index"
)

func TestSplitWords(t *testing.T) {
	t.Run("short content is one chunk", func(t *testing.T) {
		chunks := index.SplitWords("one two three", 10, 2)
		gt.Array(t, chunks).Length(1)
		gt.Value(t, chunks[0]).Equal("one two three")
	})

	t.Run("windows overlap", func(t *testing.T) {
		words := make([]string, 10)
		for i := range words {
			words[i] = string(rune('a' + i))
		}
		chunks := index.SplitWords(strings.Join(words, " "), 4, 2)

		gt.Bool(t, len(chunks) >= 2).True()
		gt.Value(t, chunks[0]).Equal("a b c d")
		gt.Value(t, chunks[1]).Equal("c d e f")
	})

	t.Run("empty content yields no chunks", func(t *testing.T) {
		gt.Array(t, index.SplitWords("   ", 10, 2)).Length(0)
	})
}

func loadTestIndex(t *testing.T, chunks []*model.Chunk, opts ...index.Option) *index.Service {
	t.Helper()

	f := &index.File{
		Version:   1,
		BuiltAt:   time.Now().UTC(),
		Documents: len(chunks),
		Chunks:    chunks,
	}
	path := filepath.Join(t.TempDir(), "index.json")
	gt.NoError(t, f.Save(path)).Required()

	svc := index.New(nil, opts...)
	gt.NoError(t, svc.LoadFile(path)).Required()
	return svc
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("empty index yields empty results", func(t *testing.T) {
		svc := index.New(nil)
		combined, passages, err := svc.Retrieve(ctx, "anything")
		gt.NoError(t, err)
		gt.Value(t, combined).Equal("")
		gt.Array(t, passages).Length(0)
		gt.Bool(t, svc.Ready()).False()
	})

	t.Run("lexical ranking prefers matching chunks", func(t *testing.T) {
		svc := loadTestIndex(t, []*model.Chunk{
			{ID: model.NewChunkID(), Source: "auth/tokens.md", Content: "authentication uses bearer tokens in the header"},
			{ID: model.NewChunkID(), Source: "deploy/ci.md", Content: "deployment pipeline runs on every merge"},
		})

		combined, passages, err := svc.Retrieve(ctx, "bearer tokens authentication")
		gt.NoError(t, err).Required()
		gt.Bool(t, len(passages) >= 1).True()
		gt.Value(t, passages[0].Source).Equal("auth/tokens.md")
		gt.Bool(t, strings.Contains(combined, "bearer tokens")).True()
	})

	t.Run("no matching chunk yields empty context", func(t *testing.T) {
		svc := loadTestIndex(t, []*model.Chunk{
			{ID: model.NewChunkID(), Source: "a.md", Content: "completely unrelated content"},
		})

		combined, passages, err := svc.Retrieve(ctx, "zzzzz qqqqq")
		gt.NoError(t, err)
		gt.Value(t, combined).Equal("")
		gt.Array(t, passages).Length(0)
	})

	t.Run("top-k bounds the result count", func(t *testing.T) {
		var chunks []*model.Chunk
		for i := 0; i < 10; i++ {
			chunks = append(chunks, &model.Chunk{
				ID:      model.NewChunkID(),
				Source:  "docs.md",
				Content: "retry with exponential backoff",
			})
		}
		svc := loadTestIndex(t, chunks, index.WithTopK(3))

		_, passages, err := svc.Retrieve(ctx, "retry backoff")
		gt.NoError(t, err).Required()
		gt.Array(t, passages).Length(3)
	})

	t.Run("passages carry scores and snippets", func(t *testing.T) {
		long := strings.Repeat("token authentication details ", 40)
		svc := loadTestIndex(t, []*model.Chunk{
			{ID: model.NewChunkID(), Source: "auth.md", Content: long},
		}, index.WithSnippetLimit(50))

		combined, passages, err := svc.Retrieve(ctx, "authentication token")
		gt.NoError(t, err).Required()
		gt.Array(t, passages).Length(1)
		gt.Value(t, passages[0].Score != nil).Equal(true)
		gt.Bool(t, len([]rune(passages[0].Content)) <= 53).True()
		// combined context keeps the full chunk, only display is truncated
		gt.Bool(t, len(combined) > len(passages[0].Content)).True()
	})
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "index.json")
	f := &index.File{
		Version:   1,
		BuiltAt:   time.Now().UTC(),
		Documents: 1,
		ChunkSize: 256,
		Chunks: []*model.Chunk{
			{ID: model.NewChunkID(), Source: "a.md", Content: "hello world", Embedding: []float32{0.1, 0.2}},
		},
	}
	gt.NoError(t, f.Save(path)).Required()

	svc := index.New(nil)
	gt.NoError(t, svc.LoadFile(path)).Required()
	gt.Bool(t, svc.Ready()).True()

	stats := svc.Stats()
	gt.Value(t, stats.Status).Equal("ready")
	gt.Value(t, stats.ChunkCount).Equal(1)
	gt.Value(t, stats.Documents).Equal(1)
	gt.Value(t, stats.ChunkSize).Equal(256)
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		svc := index.New(nil)
		gt.Error(t, svc.LoadFile(filepath.Join(t.TempDir(), "nope.json")))
	})

	t.Run("version mismatch", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.json")
		f := &index.File{Version: 99}
		gt.NoError(t, f.Save(path)).Required()

		svc := index.New(nil)
		gt.Error(t, svc.LoadFile(path))
	})
}

func TestBuildLexical(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.md", "alpha beta gamma delta")
	writeDoc(t, dir, "notes.txt", "epsilon zeta")
	writeDoc(t, dir, "ignore.bin", "binary")

	f, err := index.Build(context.Background(), nil, index.BuildInput{
		Sources: []index.Source{{Name: "docs", Path: dir}},
	})
	gt.NoError(t, err).Required()

	gt.Value(t, f.Documents).Equal(2)
	gt.Value(t, f.ChunkSize).Equal(index.DefaultChunkSize)
	gt.Array(t, f.Chunks).Length(2)
	for _, c := range f.Chunks {
		gt.Bool(t, strings.HasPrefix(c.Source, "docs/")).True()
		gt.Array(t, c.Embedding).Length(0)
	}
}

func TestBuildNoSources(t *testing.T) {
	_, err := index.Build(context.Background(), nil, index.BuildInput{})
	gt.Error(t, err)
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600)).Required()
}
