// Command bookstored runs the bookstore behind a JSON API. All data access
// flows through the authorization engine; the HTTP layer only decodes
// requests and forwards the caller's identity.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dpup/bookstore"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/eventbus"
	"github.com/dpup/bookstore/eventbus/membus"
	"github.com/dpup/bookstore/internal/api"
	"github.com/dpup/bookstore/logging"
	"github.com/dpup/bookstore/storage"
	"github.com/dpup/bookstore/storage/memorystore"
	"github.com/dpup/bookstore/storage/postgres"
	"github.com/dpup/bookstore/storage/sqlitestore"
	"github.com/dpup/bookstore/store/catalog"
	"github.com/dpup/bookstore/store/orders"
	"github.com/dpup/bookstore/store/principals"
	"github.com/dpup/bookstore/store/reviews"

	"github.com/rs/cors"
)

func main() {
	logger := logging.NewProdLogger()
	ctx := logging.With(context.Background(), logger)

	bookstore.EnsureConfigDefaults()
	if warnings := bookstore.ValidateConfig(); warnings != "" {
		logging.Warn(ctx, warnings)
	}
	for _, err := range bookstore.ValidateCriticalConfig() {
		logging.Fatalw(ctx, "invalid configuration", "key", err.Key, "error", err.Message)
	}

	store := newStore(ctx)
	bus := membus.New(ctx)
	ctx = eventbus.WithEventBus(ctx, bus)

	engine := authz.New(authz.WithAuditLogger(func(ctx context.Context, d authz.Decision) {
		logging.Debugw(ctx, "authz decision",
			"action", d.Action, "resource", d.Resource, "subject", d.Identity.Subject,
			"effect", d.Effect.String(), "reason", d.Reason)
	}))

	registry := &bookstore.Registry{}
	registry.Register(engine)
	principalsPlugin := principals.Plugin(store)
	registry.Register(principalsPlugin)
	catalogPlugin := catalog.Plugin(store)
	registry.Register(catalogPlugin)
	ordersPlugin := orders.Plugin(store)
	registry.Register(ordersPlugin)
	reviewsPlugin := reviews.Plugin(store)
	registry.Register(reviewsPlugin)

	if err := registry.Init(ctx); err != nil {
		logging.Fatalw(ctx, "plugin initialization failed", "error", err)
	}

	handlers := &api.Handlers{
		Principals: principalsPlugin.Service(),
		Catalog:    catalogPlugin.Service(),
		Orders:     ordersPlugin.Service(),
		Reviews:    reviewsPlugin.Service(),
	}
	mux := http.NewServeMux()
	handlers.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   bookstore.ConfigStrings("server.security.corsOrigins"),
		AllowedMethods:   bookstore.ConfigStrings("server.security.corsAllowMethods"),
		AllowedHeaders:   bookstore.ConfigStrings("server.security.corsAllowHeaders"),
		AllowCredentials: bookstore.ConfigBool("server.security.corsAllowCredentials"),
		MaxAge:           int(bookstore.ConfigDuration("server.security.corsMaxAge").Seconds()),
	})
	handler := corsHandler.Handler(api.WithRequestContext(logger, mux))

	addr := fmt.Sprintf("%s:%d",
		bookstore.ConfigString("server.host"), bookstore.ConfigMustInt("server.port", 1, 65535))
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	logging.Infow(ctx, "server starting",
		"name", bookstore.ConfigString("name"), "address", addr,
		"storage", bookstore.ConfigString("storage.driver"))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Fatalw(ctx, "server exited", "error", err)
	}
}

func newStore(ctx context.Context) storage.Store {
	driver := bookstore.ConfigString("storage.driver")
	dsn := bookstore.ConfigString("storage.dsn")
	switch driver {
	case "", "memory":
		logging.Warn(ctx, "using in-memory storage, data will not survive restarts")
		return memorystore.New()
	case "sqlite":
		return sqlitestore.New(dsn)
	case "postgres":
		return postgres.New(dsn)
	default:
		logging.Fatalf(ctx, "unknown storage driver: %s", driver)
		return nil
	}
}
