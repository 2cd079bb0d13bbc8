package index

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/utils/textproc"
)

// EmbeddingDimension is the vector size used for chunk and query embeddings
const EmbeddingDimension = 768

const (
	// DefaultTopK is how many passages a query retrieves
	DefaultTopK = 5

	// DefaultSnippetLimit bounds the display length of a passage
	DefaultSnippetLimit = 500

	// contextSeparator joins passage contents into the combined context
	contextSeparator = "\n\n---\n\n"

	// fileVersion guards against loading an incompatible index file
	fileVersion = 1
)

// File is the persisted form of a document index
type File struct {
	Version   int            `json:"version"`
	BuiltAt   time.Time      `json:"built_at"`
	Documents int            `json:"document_count"`
	ChunkSize int            `json:"chunk_size,omitempty"`
	Chunks    []*model.Chunk `json:"chunks"`
}

// Service holds an in-process document index and serves ranked retrieval.
// When an LLM client is available chunks are ranked by embedding cosine
// similarity; without one (local provider) a lexical term-overlap score is
// used so the passthrough backend works without credentials.
type Service struct {
	mu        sync.RWMutex
	chunks    []*model.Chunk
	documents int
	chunkSize int
	builtAt   time.Time

	llm          gollem.LLMClient
	topK         int
	snippetLimit int
}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithTopK sets how many passages a query retrieves
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithSnippetLimit sets the display length bound for passages
func WithSnippetLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snippetLimit = n
		}
	}
}

// New creates an index service. llm may be nil; retrieval then falls back to
// lexical ranking.
func New(llm gollem.LLMClient, opts ...Option) *Service {
	s := &Service{
		llm:          llm,
		topK:         DefaultTopK,
		snippetLimit: DefaultSnippetLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadFile loads a persisted index from disk
func (s *Service) LoadFile(path string) error {
	// #nosec G304 - path is provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read index file", goerr.V("path", path))
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return goerr.Wrap(err, "failed to parse index file", goerr.V("path", path))
	}
	if f.Version != fileVersion {
		return goerr.New("unsupported index file version",
			goerr.V("path", path),
			goerr.V("version", f.Version),
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = f.Chunks
	s.documents = f.Documents
	s.chunkSize = f.ChunkSize
	s.builtAt = f.BuiltAt
	return nil
}

// Ready reports whether an index is loaded
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) > 0
}

// Stats describes the loaded index
func (s *Service) Stats() model.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := "ready"
	if len(s.chunks) == 0 {
		status = "not_loaded"
	}
	return model.IndexStats{
		Status:     status,
		ChunkCount: len(s.chunks),
		Documents:  s.documents,
		TopK:       s.topK,
		ChunkSize:  s.chunkSize,
		BuiltAt:    s.builtAt,
	}
}

type scoredChunk struct {
	chunk *model.Chunk
	score float64
}

// Retrieve returns the combined context and ranked passages for a cleaned
// query. An empty or unloaded index yields empty results, not an error.
func (s *Service) Retrieve(ctx context.Context, query string) (string, []model.Passage, error) {
	s.mu.RLock()
	chunks := s.chunks
	s.mu.RUnlock()

	if len(chunks) == 0 {
		return "", nil, nil
	}

	var ranked []scoredChunk
	if s.llm != nil {
		embeddings, err := s.llm.GenerateEmbedding(ctx, EmbeddingDimension, []string{query})
		if err != nil {
			return "", nil, goerr.Wrap(err, "failed to embed query", goerr.V("query", query))
		}
		if len(embeddings) == 0 {
			return "", nil, goerr.New("no query embedding returned")
		}
		ranked = rankByEmbedding(chunks, embeddings[0])
	} else {
		ranked = rankByTerms(chunks, query)
	}

	if len(ranked) > s.topK {
		ranked = ranked[:s.topK]
	}

	passages := make([]model.Passage, 0, len(ranked))
	contextParts := make([]string, 0, len(ranked))
	for _, sc := range ranked {
		score := sc.score
		passages = append(passages, model.Passage{
			Content: textproc.Truncate(sc.chunk.Content, s.snippetLimit),
			Source:  sc.chunk.Source,
			Score:   &score,
		})
		contextParts = append(contextParts, sc.chunk.Content)
	}

	return strings.Join(contextParts, contextSeparator), passages, nil
}

// rankByEmbedding orders chunks by cosine similarity against the query vector
func rankByEmbedding(chunks []*model.Chunk, query []float64) []scoredChunk {
	var ranked []scoredChunk
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scoredChunk{
			chunk: c,
			score: cosineSimilarity(query, c.Embedding),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// rankByTerms orders chunks by the fraction of query terms they contain.
// Chunks matching no term are excluded.
func rankByTerms(chunks []*model.Chunk, query string) []scoredChunk {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	var ranked []scoredChunk
	for _, c := range chunks {
		chunkTerms := make(map[string]struct{})
		for _, t := range tokenize(c.Content) {
			chunkTerms[t] = struct{}{}
		}

		matched := 0
		for _, t := range terms {
			if _, ok := chunkTerms[t]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		ranked = append(ranked, scoredChunk{
			chunk: c,
			score: float64(matched) / float64(len(terms)),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func cosineSimilarity(a []float64, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * float64(b[i])
		normA += a[i] * a[i]
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}

// Save persists the currently loaded index to disk
func (f *File) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create index directory", goerr.V("dir", dir))
		}
	}

	data, err := json.Marshal(f)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal index")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return goerr.Wrap(err, "failed to write index file", goerr.V("path", path))
	}
	return nil
}
