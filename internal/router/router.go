package router

import (
	"database/sql"
	"net/http"

	_ "shared-access-core/docs"
	mem "shared-access-core/internal/adapters/storage/memory"
	pg "shared-access-core/internal/adapters/storage/postgres"
	lite "shared-access-core/internal/adapters/storage/sqlite"
	"shared-access-core/internal/domain/access"
	"shared-access-core/internal/domain/audit"
	"shared-access-core/internal/domain/conflicts"
	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/invitations"
	"shared-access-core/internal/domain/sessions"
	"shared-access-core/internal/middleware"
	"shared-access-core/internal/platform/clock"
	"shared-access-core/internal/platform/config"
	"shared-access-core/internal/platform/ids"
	"shared-access-core/internal/platform/logger"
	"shared-access-core/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config       config.Config
	Logger       logger.Logger
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres o SQLite según Config.Storage. Si no, in-memory.
	DB *sql.DB

	// Opcionales, para tests.
	Clock clock.Clock
	IDs   ids.Generator
}

type repos struct {
	grants      grants.Repository
	invitations invitations.Repository
	sessions    sessions.Repository
	audit       audit.Repository
}

func newRepos(storage config.Storage, db *sql.DB) repos {
	switch {
	case db != nil && storage == config.StoragePostgres:
		return repos{
			grants:      pg.NewGrantsRepo(db),
			invitations: pg.NewInvitationsRepo(db),
			sessions:    pg.NewSessionsRepo(db),
			audit:       pg.NewAuditRepo(db),
		}
	case db != nil && storage == config.StorageSQLite:
		return repos{
			grants:      lite.NewGrantsRepo(db),
			invitations: lite.NewInvitationsRepo(db),
			sessions:    lite.NewSessionsRepo(db),
			audit:       lite.NewAuditRepo(db),
		}
	default:
		return repos{
			grants:      mem.NewGrantsRepo(),
			invitations: mem.NewInvitationsRepo(),
			sessions:    mem.NewSessionsRepo(),
			audit:       mem.NewAuditRepo(),
		}
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}
	gen := opts.IDs
	if gen == nil {
		gen = ids.UUID()
	}
	retention := opts.Config.AuditRetention
	if retention <= 0 {
		retention = config.DefaultAuditRetention
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLog(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	rp := newRepos(opts.Config.Storage, opts.DB)

	// Services por módulo
	store := grants.NewStore(rp.grants, clk)
	auditLog := audit.NewLog(rp.audit, audit.Options{
		Clock:     clk,
		IDs:       gen,
		Logger:    log.With(logger.Fields{"module": "audit"}),
		Retention: retention,
	})
	mgr := invitations.NewManager(rp.invitations, store, auditLog, invitations.Options{
		Clock:  clk,
		IDs:    gen,
		Logger: log.With(logger.Fields{"module": "invitations"}),
	})
	reg := sessions.NewRegistry(rp.sessions, sessions.Options{Clock: clk, IDs: gen})
	detector := conflicts.NewDetector(auditLog, reg, conflicts.Options{
		Clock:  clk,
		Logger: log.With(logger.Fields{"module": "conflicts"}),
	})
	ctrl := access.NewController(access.Deps{
		Grants:      store,
		Invitations: mgr,
		Sessions:    reg,
		Audit:       auditLog,
		Conflicts:   detector,
	}, access.Options{Logger: log.With(logger.Fields{"module": "access"})})

	// Rutas por módulo
	invitations.RegisterRoutes(r, mgr)
	sessions.RegisterRoutes(r, reg, ctrl)
	audit.RegisterRoutes(r, auditLog, ctrl)
	access.RegisterRoutes(r, ctrl)

	return r
}
