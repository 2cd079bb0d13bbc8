package index

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize is the chunk window in words
	DefaultChunkSize = 512

	// DefaultChunkOverlap is the window overlap in words
	DefaultChunkOverlap = 50

	// embedBatchSize bounds one embedding API call
	embedBatchSize = 16

	// embedConcurrency bounds in-flight embedding calls
	embedConcurrency = 4
)

// Source is one documentation collection to ingest
type Source struct {
	// Name prefixes chunk provenance so stats and passages show the collection
	Name string
	// Path is the directory to walk
	Path string
	// Glob optionally restricts file names; when empty, markdown and plain
	// text files are ingested
	Glob string
}

var defaultExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
}

func (s Source) matches(name string) bool {
	if s.Glob != "" {
		ok, err := filepath.Match(s.Glob, name)
		return err == nil && ok
	}
	_, ok := defaultExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// BuildInput configures an index build
type BuildInput struct {
	Sources      []Source
	ChunkSize    int
	ChunkOverlap int
}

// Build walks the configured sources, chunks every matching document and
// embeds the chunks when an LLM client is available. A nil client produces a
// lexical-only index usable with the local provider.
func Build(ctx context.Context, llm gollem.LLMClient, input BuildInput) (*File, error) {
	chunkSize := input.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkOverlap := input.ChunkOverlap
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if len(input.Sources) == 0 {
		return nil, goerr.New("no sources to ingest")
	}

	logger := logging.From(ctx)

	var chunks []*model.Chunk
	documents := 0
	for _, src := range input.Sources {
		srcDocs, srcChunks, err := collect(src, chunkSize, chunkOverlap)
		if err != nil {
			return nil, err
		}
		logger.Info("collected source",
			"source", src.Name,
			"path", src.Path,
			"documents", srcDocs,
			"chunks", len(srcChunks),
		)
		documents += srcDocs
		chunks = append(chunks, srcChunks...)
	}

	if len(chunks) == 0 {
		return nil, goerr.New("no documents found in sources")
	}

	if llm != nil {
		if err := embedChunks(ctx, llm, chunks); err != nil {
			return nil, err
		}
	} else {
		logger.Info("no LLM client configured, building lexical-only index")
	}

	return &File{
		Version:   fileVersion,
		BuiltAt:   time.Now().UTC(),
		Documents: documents,
		ChunkSize: chunkSize,
		Chunks:    chunks,
	}, nil
}

// collect walks one source and returns its document count and chunks
func collect(src Source, chunkSize, chunkOverlap int) (int, []*model.Chunk, error) {
	root := filepath.Clean(src.Path)
	documents := 0
	var chunks []*model.Chunk

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !src.matches(d.Name()) {
			return nil
		}

		data, err := readDocument(path)
		if err != nil {
			return err
		}
		if strings.TrimSpace(data) == "" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = d.Name()
		}
		provenance := filepath.ToSlash(rel)
		if src.Name != "" {
			provenance = src.Name + "/" + provenance
		}

		documents++
		for _, content := range SplitWords(data, chunkSize, chunkOverlap) {
			chunks = append(chunks, &model.Chunk{
				ID:      model.NewChunkID(),
				Source:  provenance,
				Content: content,
			})
		}
		return nil
	})
	if walkErr != nil {
		return 0, nil, goerr.Wrap(walkErr, "failed to walk source", goerr.V("path", src.Path))
	}

	return documents, chunks, nil
}

func readDocument(path string) (string, error) {
	// #nosec G304 - path comes from walking a user-specified directory
	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read document", goerr.V("path", path))
	}
	return string(data), nil
}

// embedChunks fills in chunk embeddings, batched and bounded in concurrency
func embedChunks(ctx context.Context, llm gollem.LLMClient, chunks []*model.Chunk) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(embedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Content
			}

			embeddings, err := llm.GenerateEmbedding(ctx, EmbeddingDimension, texts)
			if err != nil {
				return goerr.Wrap(err, "failed to generate embeddings", goerr.V("batch_size", len(batch)))
			}
			if len(embeddings) != len(batch) {
				return goerr.New("embedding count mismatch",
					goerr.V("want", len(batch)),
					goerr.V("got", len(embeddings)),
				)
			}

			for i, emb := range embeddings {
				vec := make([]float32, len(emb))
				for j, v := range emb {
					vec[j] = float32(v)
				}
				batch[i].Embedding = vec
			}
			return nil
		})
	}

	return eg.Wait()
}
