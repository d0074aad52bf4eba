package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/opentours/tourdesk"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

type App struct {
	config *gconfig.Container[*tourdesk.AppConfig]
	repo   tourdesk.RepositoryManager
	auth   *tourdesk.Auther
	gate   *tourdesk.AccessGate
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *tourdesk.AppConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("tourdesk"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&tourdesk.AppConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	if err := EnsureAdmin(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	app.srv.Serve(app.Config().GetServer().GetAddress())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	pcfg := app.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*tourdesk.Role)(nil))
	persistence.RegisterModel((*tourdesk.Status)(nil))
	persistence.RegisterModel((*tourdesk.User)(nil))
	persistence.RegisterModel((*tourdesk.Operator)(nil))
	persistence.RegisterModel((*tourdesk.Guide)(nil))

	client, err := persistence.New(pcfg, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(tourdesk.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	client.RegisterFixtures(fixturesFS)

	if err := client.Seed(ctx); err != nil {
		return err
	}

	app.repo = tourdesk.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithAuth(ctx context.Context, app *App) error {
	acfg := app.Config().GetAuth()

	provider := tourdesk.NewUserProvider(app.repo.Users())
	provider.WithLogger(app.GetLogger("auth:prv"))

	app.auth = tourdesk.NewAuthenticator(provider, acfg).
		WithLogger(app.GetLogger("auth"))

	app.gate = tourdesk.NewAccessGate(app.auth.TokenService(), app.repo.Users()).
		WithLogger(app.GetLogger("auth:gate"))

	return nil
}

// EnsureAdmin seeds the first superuser from the environment when the
// account does not exist yet.
func EnsureAdmin(ctx context.Context, app *App) error {
	email := os.Getenv("TOURDESK_ADMIN_EMAIL")
	password := os.Getenv("TOURDESK_ADMIN_PASSWORD")
	if email == "" || password == "" {
		app.GetLogger("seed").Warn("admin credentials not set, skipping superuser seed")
		return nil
	}

	if _, err := app.repo.Users().GetByIdentifier(ctx, email); err == nil {
		return nil
	}

	handler := tourdesk.NewRegisterUserHandler(app.repo)
	user, err := handler.Execute(ctx, tourdesk.RegisterUserMessage{
		NationalID: "admin",
		FirstName:  "Admin",
		LastName:   "User",
		Email:      email,
		Password:   password,
		RoleID:     tourdesk.RoleIDAdmin,
		StatusID:   tourdesk.StatusIDActive,
		UseHashid:  true,
	})
	if err != nil {
		return err
	}

	app.GetLogger("seed").Info("seeded superuser", "user", print.MaybePrettyJSON(map[string]any{
		"id":    user.ID,
		"email": user.Email,
	}))

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	acfg := app.Config().GetAuth()

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	mw, err := tourdesk.NewHTTPAuthenticator(app.gate, acfg)
	if err != nil {
		return err
	}
	mw.Logger = app.GetLogger("auth:http")

	ctrl := tourdesk.NewHTTPController(app.auth, app.repo, mw, acfg)
	ctrl.Logger = app.GetLogger("api")
	ctrl.RegisterRoutes(srv.Router())

	app.srv = srv

	fmt.Printf("listening on %s\n", app.Config().GetServer().GetAddress())

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
