// Command shopper is a terminal storefront client. It keeps the cart and the
// signed-in account in a local SQLite file (or Redis) and talks to the API.
//
//	shopper [global flags] <command> [args]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/logger"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/api"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/cart"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/checkout"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/session"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/storage"
)

const usage = `usage: shopper [flags] <command> [args]

commands:
  products [-search s] [-category c] [-min n] [-max n] [-sort key] [-page n] [-limit n]
  product <id>
  featured
  categories
  register <name> <email> <password>
  login <email> <password>
  logout
  profile
  cart
  add <product-id> [qty]
  remove <product-id>
  qty <product-id> <qty>
  validate
  checkout -street s -city c -state s -zip z -country c -payment method [-notes text]
  orders [-page n] [-limit n]
  order <id>
`

type app struct {
	api      *api.Client
	store    storage.Store
	cart     *cart.Cart
	session  *session.Session
	checkout *checkout.Checkout
	log      *zap.Logger
	out      io.Writer
}

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("shopper", flag.ExitOnError)
	apiURL := fs.String("api", getEnv("STOREFRONT_API_URL", "http://localhost:5000/api"), "storefront API base URL")
	storeDSN := fs.String("store", getEnv("STOREFRONT_STORE", "shopper.db"), "sqlite file, redis:// URL or \"memory\"")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage); fs.PrintDefaults() }
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	env := "production"
	if *verbose {
		env = "development"
	}
	log := logger.Initialize(env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, *storeDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer closeStore()

	a, err := newApp(ctx, api.NewClient(*apiURL, api.DefaultTimeout), store, log, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, client *api.Client, store storage.Store, log *zap.Logger, out io.Writer) (*app, error) {
	c, err := cart.Open(ctx, store, log.Named("cart"))
	if err != nil {
		return nil, err
	}
	s := session.New(client, store, c, log.Named("session"))
	return &app{
		api:      client,
		store:    store,
		cart:     c,
		session:  s,
		checkout: checkout.New(s, c, client, client, log.Named("checkout")),
		log:      log,
		out:      out,
	}, nil
}

func openStore(ctx context.Context, dsn string) (storage.Store, func(), error) {
	switch {
	case dsn == "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		rs, err := storage.NewRedisStore(ctx, dsn, getEnv("STOREFRONT_NAMESPACE", "default"), 0)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		ss, err := storage.OpenSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		return ss, func() { _ = ss.Close() }, nil
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
