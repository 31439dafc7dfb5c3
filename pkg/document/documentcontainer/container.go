package documentcontainer

import (
	"github.com/hypeframe/monarch/pkg/config"
	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/document/documentapi"
	"github.com/hypeframe/monarch/pkg/document/documentinfra"
	"github.com/hypeframe/monarch/pkg/document/documentsrv"
	"github.com/hypeframe/monarch/pkg/logx"
	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Cfg *config.Config
	// DB nil means the in-memory store.
	DB *sqlx.DB
}

type Container struct {
	Store            document.Store
	DocumentService  *documentsrv.DocumentService
	DocumentHandlers *documentapi.DocumentHandlers
}

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing document container...")

	c := &Container{}

	// ── Store ────────────────────────────────────────────────────────────

	if deps.DB != nil {
		c.Store = documentinfra.NewPostgresDocumentStore(deps.DB)
	} else {
		c.Store = documentinfra.NewMemoryDocumentStore()
		logx.Warn("  ⚠️  Using in-memory document store")
	}

	// ── Service & handlers ───────────────────────────────────────────────

	cfg := deps.Cfg.Document
	c.DocumentService = documentsrv.NewDocumentService(c.Store, cfg.BulkMaxOps, cfg.DefaultPageSize, cfg.MaxPageSize)
	c.DocumentHandlers = documentapi.NewDocumentHandlers(c.DocumentService)

	logx.Info("✅ Document container initialized")
	return c
}
