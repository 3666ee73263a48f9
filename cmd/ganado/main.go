package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"ganado360/internal/adapters/ganadoapi"
	mem "ganado360/internal/adapters/storage/memory"
	pg "ganado360/internal/adapters/storage/postgres"
	"ganado360/internal/config"
	"ganado360/internal/domain/accounts"
	"ganado360/internal/domain/inventory"
	"ganado360/internal/domain/reproduction"
	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/logger"
	"ganado360/internal/platform/session"

	"github.com/spf13/cobra"
)

// app agrupa la sesión y los services que usan los comandos.
type app struct {
	sess *session.Session
	out  io.Writer

	accounts     *accounts.Service
	inventory    *inventory.Service
	reproduction *reproduction.Service
	reminderDays int
}

func newApp(cfg *config.Config, log logger.Logger, out io.Writer) (*app, error) {
	if cfg.DevMode() {
		return nil, errors.New("GANADO_API_URL no está configurado")
	}

	sess, err := session.NewWithStore(session.NewFileStore(cfg.SessionFile))
	if err != nil {
		return nil, fmt.Errorf("leer sesión: %w", err)
	}
	hc, err := httpclient.NewWithBaseURL(cfg.UpstreamURL, cfg.UpstreamTimeout(), sess)
	if err != nil {
		return nil, err
	}
	api := ganadoapi.New(hc, log)

	var journal reproduction.SagaJournal = mem.NewSagaJournal()
	if cfg.DatabaseURL != "" {
		db, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pg.EnsureSchema(context.Background(), db); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		journal = pg.NewSagaJournal(db)
	}
	births := reproduction.NewService(api.Reproduction, api.Inventory, journal, log)
	births.SetSagaTimeout(cfg.SagaTimeout())

	return &app{
		sess:         sess,
		out:          out,
		accounts:     accounts.NewService(api.Accounts, sess, log),
		inventory:    inventory.NewService(api.Inventory, log),
		reproduction: births,
		reminderDays: cfg.ReminderWindowDays,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    "ganado",
	})
	defer func() { _ = log.Sync() }()

	a, err := newApp(cfg, log, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := a.execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// execute corre el comando. Un 401 del API invalida la sesión guardada.
func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.out)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil || !httpclient.IsUnauthorized(err) || (cmd != nil && cmd.Name() == "login") {
		return err
	}
	lerr := a.accounts.Logout()
	expired := errors.New("la sesión expiró o no es válida; ejecuta `ganado login` de nuevo")

	// Con la cría ya creada el error trae el id de la cría y el de la saga; sin
	// ellos el usuario no puede reanudar.
	var be *reproduction.BirthError
	if errors.As(err, &be) && be.Partial() {
		return errors.Join(err, expired, lerr)
	}
	if lerr != nil {
		return errors.Join(err, lerr)
	}
	return expired
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ganado",
		Short:         "Cliente de línea de comandos de Ganado360",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.pedigreeCmd(),
		a.historialCmd(),
		a.diagnosticoCmd(),
		a.nacimientoCmd(),
		a.bajaCmd(),
		a.recordatoriosCmd(),
	)
	return root
}

// requireSession corta antes de llamar al API si no hay token guardado.
func (a *app) requireSession(*cobra.Command, []string) error {
	if !a.sess.LoggedIn() {
		return errors.New("no hay sesión; ejecuta `ganado login`")
	}
	return nil
}
