// Command admin performs operator actions on accounts directly against the
// database, e.g. `admin deactivate <account-id>`.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/gatehouse/internal/config"
	"github.com/BradenHooton/gatehouse/internal/database"
	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/BradenHooton/gatehouse/internal/repositories"
	"github.com/BradenHooton/gatehouse/internal/services"
	pkgauth "github.com/BradenHooton/gatehouse/pkg/auth"
	pkglogger "github.com/BradenHooton/gatehouse/pkg/logger"
)

// AccountAdmin is the subset of services.UserService the commands use
type AccountAdmin interface {
	Deactivate(ctx context.Context, id string) error
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	hasher, err := pkgauth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		db.Close()
		logger.Error("failed to initialize password hasher", slog.Any("error", err))
		os.Exit(1)
	}

	userService := services.NewUserService(repositories.NewUserRepository(db), hasher, logger, pkglogger.NewAuditLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = run(ctx, os.Args[1:], userService, os.Stdout, os.Stderr)
	cancel()
	db.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, accounts AccountAdmin, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: admin deactivate <account-id>")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch fs.Arg(0) {
	case "deactivate":
		if fs.NArg() != 2 {
			fs.Usage()
			return errors.New("deactivate takes exactly one account id")
		}
		id := fs.Arg(1)
		if err := accounts.Deactivate(ctx, id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("account %s not found", id)
			}
			return err
		}
		fmt.Fprintf(stdout, "account %s deactivated\n", id)
		return nil
	case "":
		fs.Usage()
		return errors.New("missing command")
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}
}
