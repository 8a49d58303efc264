package bootstrap

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-segmenter/internal/adapter/repository"
	"github.com/johnquangdev/meeting-segmenter/internal/domain/repositories"
	"github.com/johnquangdev/meeting-segmenter/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-segmenter/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-segmenter/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-segmenter/internal/usecase/segment"
	pkgai "github.com/johnquangdev/meeting-segmenter/pkg/ai"
	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// Options selects the optional parts of the dependency graph
type Options struct {
	// WithCheckpoints attaches the configured checkpoint store.
	WithCheckpoints bool
	// CheckpointDir overrides cfg.Storage.Dir for the filesystem store.
	CheckpointDir string
}

// Deps is the wired dependency graph shared by the API server and the CLI
type Deps struct {
	Pipeline *segment.Pipeline
	Runs     repositories.RunRepository
	Store    storage.CheckpointStore

	db    *gorm.DB
	cache cache.VectorCache
}

// Build connects infrastructure and assembles the segmentation pipeline
func Build(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*Deps, error) {
	deps := &Deps{}

	log.Println("📦 Connecting to database...")
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if db != nil {
		deps.db = db
		deps.Runs = repository.NewRunRepository(db)
	} else {
		log.Println("⏭️  Database disabled, run auditing is off")
	}

	embedder, err := deps.embedder(ctx, cfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	if opts.WithCheckpoints {
		store, err := newCheckpointStore(ctx, cfg, opts.CheckpointDir)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Store = store
	}

	log.Println("🤖 Initializing segmentation strategies...")
	llm := pkgai.NewChatClient(&cfg.LLM)
	log.Printf("🤖 LLM model: %s", llm.Model())
	budget := segment.Budget{
		ContextTokens:   cfg.LLM.ContextTokens,
		ResponseReserve: cfg.LLM.ResponseReserve,
		CharsPerToken:   cfg.LLM.CharsPerToken,
	}
	seg := cfg.Segmentation
	strategies := []segment.Strategy{
		segment.NewBoundarySearcher(llm, segment.SearchOptions{
			Budget:         budget,
			StrictRecovery: seg.StrictRecovery,
		}, logger),
		segment.NewEmbeddingSegmenter(embedder, segment.EmbeddingOptions{
			ChunkSize:    seg.ChunkSize,
			Overlap:      seg.Overlap,
			Threshold:    seg.Threshold,
			SmoothWindow: seg.SmoothWindow,
			MinRunLength: seg.MinRunLength,
		}, logger),
		segment.NewModeratorSegmenter(llm, seg.ModeratorSpeaker, budget, logger),
	}

	deps.Pipeline = segment.NewPipeline(strategies, deps.Store, deps.Runs, segment.PipelineOptions{
		Compress:   cfg.Storage.Compress,
		RunTimeout: seg.RunTimeout,
	}, logger)

	log.Println("✅ Dependencies initialized")
	return deps, nil
}

func (d *Deps) embedder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (segment.Embedder, error) {
	client := pkgai.NewEmbeddingClient(&cfg.Embedding)

	var store cache.VectorCache
	switch cfg.Cache.Driver {
	case "redis":
		log.Println("📦 Connecting to Redis...")
		rc, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = cache.NewRedisStore(rc)
	case "memory":
		store = cache.NewMemoryStore()
	default:
		return client, nil
	}
	d.cache = store
	log.Printf("🤖 Embedding model: %s (cache: %s)", client.Model(), cfg.Cache.Driver)
	return cache.NewCachingEmbedder(client, store, client.Model(), cfg.Cache.TTL, logger), nil
}

func newCheckpointStore(ctx context.Context, cfg *config.Config, dir string) (storage.CheckpointStore, error) {
	if cfg.Storage.Type == "minio" {
		log.Printf("📦 Connecting to MinIO at %s...", cfg.Storage.Endpoint)
		store, err := storage.NewMinIOStore(ctx, &cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize checkpoint storage: %w", err)
		}
		return store, nil
	}
	if dir == "" {
		dir = cfg.Storage.Dir
	}
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize checkpoint storage: %w", err)
	}
	return store, nil
}

// DB returns the audit database handle, nil when auditing is disabled
func (d *Deps) DB() *gorm.DB {
	return d.db
}

// Close releases the vector cache and the database connection
func (d *Deps) Close() {
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			log.Printf("⚠️  Failed to close vector cache: %v", err)
		}
	}
	if d.db != nil {
		if err := database.CloseDB(d.db); err != nil {
			log.Printf("⚠️  Failed to close database: %v", err)
		}
	}
}
