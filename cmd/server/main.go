package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/kyogaku/studyhall/internal/api/http"
	authmw "github.com/kyogaku/studyhall/internal/auth/middleware"
	"github.com/kyogaku/studyhall/internal/config"
	"github.com/kyogaku/studyhall/internal/db"
	"github.com/kyogaku/studyhall/internal/rbac"
	"github.com/kyogaku/studyhall/internal/scheduler"
	"github.com/kyogaku/studyhall/internal/storage"
	"github.com/kyogaku/studyhall/internal/study"
	"github.com/kyogaku/studyhall/internal/syncx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Error("db open failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := seedAdmin(ctx, sqlDB, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Error("blob store init failed", "path", cfg.BlobBasePath, "err", err)
		os.Exit(1)
	}

	store := study.NewSQLStore(sqlDB)
	events := syncx.NewEventRepo(sqlDB)
	svc := study.NewService(store, store, store, events, log)
	auth := authmw.NewAuthService(cfg.AuthSecret)

	var sched *scheduler.Scheduler
	if cfg.SnapshotRefreshEvery > 0 {
		sched = scheduler.New(svc, log)
		if err := sched.Start(cfg.SnapshotRefreshEvery); err != nil {
			log.Error("scheduler start failed", "err", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(cfg, log, sqlDB, auth, svc, store, blobs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", string(cfg.Mode), "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func newRouter(cfg config.Config, log *slog.Logger, sqlDB *sql.DB, auth *authmw.AuthService, svc *study.Service, store *study.SQLStore, blobs storage.BlobStore) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := sqlDB.PingContext(req.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(auth, sqlDB))
	}

	// Authenticated API.
	r.Group(func(r chi.Router) {
		r.Use(authmw.JWTMiddleware(auth))
		r.Use(authmw.AttachRoleFromDB(sqlDB, true))

		// Catalog reads: any signed-in role.
		r.Group(func(r chi.Router) {
			r.Use(rbac.Require("catalog:view"))
			r.Get("/catalog/textbooks", api.ListTextbooksHandler(store))
			r.Get("/catalog/textbooks/{textbookID}/units", api.ListUnitsHandler(store))
			r.Get("/catalog/questions", api.ListQuestionsHandler(store))
			r.Get("/assets/*", api.GetAssetHandler(blobs))
		})

		// Catalog writes: teachers and admins.
		r.Group(func(r chi.Router) {
			r.Use(rbac.Require("catalog:edit"))
			r.Post("/catalog/textbooks", api.PutTextbookHandler(store))
			r.Delete("/catalog/textbooks/{textbookID}", api.DeleteTextbookHandler(store))
			r.Post("/catalog/textbooks/{textbookID}/units", api.PutUnitHandler(store))
			r.Delete("/catalog/units/{unitID}", api.DeleteUnitHandler(store))
			r.Post("/catalog/questions", api.PutQuestionHandler(store))
			r.Delete("/catalog/questions/{questionID}", api.DeleteQuestionHandler(store))
		})
		r.With(rbac.Require("catalog:import")).
			Post("/catalog/textbooks/{source}/import", api.ImportQuestionsHandler(store))
		r.With(rbac.Require("catalog:import")).
			Get("/catalog/import-template", api.ImportTemplateHandler())
		r.With(rbac.Require("catalog:export")).
			Get("/catalog/textbooks/{source}/export", api.ExportQuestionsHandler(store))
		r.With(rbac.Require("assets:upload")).
			Post("/catalog/textbooks/{source}/units/{unitNumber}/questions/{questionID}/image",
				api.UploadQuestionImageHandler(blobs))

		// Study flow.
		r.Group(func(r chi.Router) {
			r.Use(rbac.Require("study:answer"))
			r.Post("/study/answer", api.SubmitAnswerHandler(svc))
			r.Get("/study/chunks", api.GetChunkItemsHandler(svc))
			r.Get("/study/practice", api.GetPracticeItemsHandler(svc))
		})
		r.With(rbac.RequireAny("study:view-own", "study:view-all")).
			Get("/study/progress", api.GetProgressHandler(svc))
		r.With(rbac.RequireAny("study:view-own", "study:view-all")).
			Get("/study/snapshots", api.ListSnapshotsHandler(store))
		r.With(rbac.RequireAny("study:reset-own", "study:reset-any")).
			Post("/study/reset", api.ResetHistoryHandler(svc))

		// User administration.
		r.With(rbac.Require("users:bulk_upsert")).Post("/users/bulk", api.BulkUpsertUsersHandler(sqlDB))
		r.With(rbac.Require("users:list")).Get("/users", api.ListUsersHandler(sqlDB))
		r.With(rbac.Require("user:change_password")).Post("/users/change-password", api.ChangePasswordHandler(sqlDB))
	})

	return r
}

// seedAdmin makes sure the configured admin account exists. The hash comes
// from the environment; nothing is generated here.
func seedAdmin(ctx context.Context, sqlDB *sql.DB, cfg config.Config) error {
	if cfg.AdminUser == "" || cfg.AdminPassHash == "" {
		return nil
	}
	_, err := sqlDB.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, 'admin', $4)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = 'admin'`,
		"admin-"+cfg.AdminUser, cfg.AdminUser, cfg.AdminPassHash, time.Now().Unix())
	return err
}
