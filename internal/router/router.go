package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "ganado360/docs"
	"ganado360/internal/adapters/ganadoapi"
	mem "ganado360/internal/adapters/storage/memory"
	pg "ganado360/internal/adapters/storage/postgres"
	"ganado360/internal/config"
	"ganado360/internal/domain/accounts"
	"ganado360/internal/domain/fincas"
	"ganado360/internal/domain/health"
	"ganado360/internal/domain/inventory"
	"ganado360/internal/domain/reproduction"
	"ganado360/internal/middleware"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
	"ganado360/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
)

// DemoFincaID es la finca que se crea en modo dev para probar invitaciones.
const (
	DemoFincaID    = "finca-demo"
	DemoOwnerEmail = "demo@ganado360.local"
)

type Options struct {
	Config *config.Config
	Logger logger.Logger // nil => nop

	// Opcional: si viene, el journal de sagas usa Postgres. Si no, se intenta
	// con Config.DatabaseURL y, si tampoco, in-memory.
	DB *sql.DB
}

type repos struct {
	inventory    inventory.Repository
	reproduction reproduction.Repository
	health       health.Repository
	fincas       fincas.Repository
	accounts     accounts.Repository

	// resolve solo existe en modo dev (el BFF emite los tokens).
	resolve middleware.EmailResolver
}

func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var rp repos
	if cfg.DevMode() {
		rp = memoryRepos(cfg)
		log.Warn("GANADO_API_URL vacío: modo dev con repos in-memory", nil)
	} else {
		hc, err := httpclient.NewWithBaseURL(cfg.UpstreamURL, cfg.UpstreamTimeout(), nil)
		if err != nil {
			// config inválida: no hay forma de servir nada útil
			panic(err)
		}
		rp = upstreamRepos(hc, log)
		log.Info("usando API remoto", map[string]any{"upstream": cfg.UpstreamURL})
	}

	journal := sagaJournal(opts.DB, cfg, log)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler)

	r.Use(middleware.AuthContext(rp.resolve))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	inventorySvc := inventory.NewService(rp.inventory, log)
	reproSvc := reproduction.NewService(rp.reproduction, rp.inventory, journal, log)
	reproSvc.SetSagaTimeout(cfg.SagaTimeout())
	healthSvc := health.NewService(rp.health, rp.inventory, log)
	fincasSvc := fincas.NewService(rp.fincas, log)
	accountsSvc := accounts.NewService(rp.accounts, nil, log)

	accounts.RegisterRoutes(r, accountsSvc)

	// Rutas por módulo. Con API remoto todo (salvo /auth) exige bearer.
	r.Group(func(pr chi.Router) {
		if !cfg.DevMode() {
			pr.Use(middleware.RequireToken)
		}
		inventory.RegisterRoutes(pr, inventorySvc)
		reproduction.RegisterRoutes(pr, reproSvc, cfg.ReminderWindow())
		health.RegisterRoutes(pr, healthSvc)
		fincas.RegisterRoutes(pr, fincasSvc)
	})

	return r
}

func memoryRepos(cfg *config.Config) repos {
	fincasRepo := mem.NewFincasRepo()
	fincasRepo.PutFinca(fincas.Finca{ID: DemoFincaID, Nombre: "Finca Demo"}, DemoOwnerEmail)

	// sin secreto configurado los tokens valen solo mientras viva el proceso
	secret := cfg.DevJWTSecret
	if secret == "" {
		secret = uuid.NewString()
	}
	accountsRepo := mem.NewAccountsRepo(secret, cfg.DevTokenTTL())

	return repos{
		inventory:    mem.NewInventoryRepo(),
		reproduction: mem.NewReproductionRepo(),
		health:       mem.NewHealthRepo(),
		fincas:       fincasRepo,
		accounts:     accountsRepo,
		resolve:      accountsRepo.EmailFromToken,
	}
}

func upstreamRepos(hc *httpclient.Client, log logger.Logger) repos {
	api := ganadoapi.New(hc, log)
	return repos{
		inventory:    api.Inventory,
		reproduction: api.Reproduction,
		health:       api.Health,
		fincas:       api.Fincas,
		accounts:     api.Accounts,
	}
}

// sagaJournal: DB explícita > DATABASE_URL > in-memory. Si Postgres no
// responde se sigue en memoria.
func sagaJournal(db *sql.DB, cfg *config.Config, log logger.Logger) reproduction.SagaJournal {
	if db == nil && cfg.DatabaseURL != "" {
		opened, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres no disponible; journal de sagas en memoria", map[string]any{"err": err})
		} else {
			db = opened
		}
	}
	if db == nil {
		return mem.NewSagaJournal()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(ctx, db); err != nil {
		log.Error("no se pudo crear el schema del journal; uso memoria", map[string]any{"err": err})
		return mem.NewSagaJournal()
	}
	return pg.NewSagaJournal(db)
}
