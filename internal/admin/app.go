// Package admin implements the operator CLI: schema migrations, account
// bootstrap and feature management against the API database.
package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
)

type UserService interface {
	Create(ctx context.Context, in models.UserInput) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	SetFeatures(ctx context.Context, userID string, features []auth.Feature) (*models.User, error)
}

type ActivationService interface {
	GenerateToken(ctx context.Context, userID string) (string, error)
	ActivateAccount(ctx context.Context, token string) (*models.ActivationToken, error)
	IsFirstActivation(ctx context.Context) (bool, error)
}

// Migrator applies the embedded schema.
type Migrator func(ctx context.Context) error

type App struct {
	users       UserService
	activations ActivationService
	migrate     Migrator
	out         io.Writer
}

func NewApp(us UserService, as ActivationService, m Migrator, out io.Writer) *App {
	return &App{users: us, activations: as, migrate: m, out: out}
}

const usage = `Usage: admin [flags] <command> [args]

Commands:
  migrate                           apply database migrations
  status                            report whether any account was activated
  create-user <username> <email>    create a user (prompts for password)
  activate <token>                  activate an account
  grant <username> <feature>...     overwrite a user's features
  features                          list known features
`

var ErrUsage = errors.New("invalid usage")

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return a.runMigrate(ctx)
	case "status":
		return a.status(ctx)
	case "create-user":
		if len(rest) != 2 {
			return a.usageError("create-user <username> <email>")
		}
		return a.createUser(ctx, rest[0], rest[1])
	case "activate":
		if len(rest) != 1 {
			return a.usageError("activate <token>")
		}
		return a.activate(ctx, rest[0])
	case "grant":
		if len(rest) < 2 {
			return a.usageError("grant <username> <feature>...")
		}
		return a.grant(ctx, rest[0], rest[1:])
	case "features":
		a.listFeatures()
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "Unknown command: %s\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) usageError(s string) error {
	fmt.Fprintln(a.out, "Usage: admin", s)
	return ErrUsage
}

func (a *App) runMigrate(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Migrations applied.")
	return nil
}

func (a *App) status(ctx context.Context) error {
	first, err := a.activations.IsFirstActivation(ctx)
	if err != nil {
		return err
	}
	if first {
		fmt.Fprintln(a.out, "No account has been activated yet.")
	} else {
		fmt.Fprintln(a.out, "At least one account is active.")
	}
	return nil
}

func (a *App) createUser(ctx context.Context, username, email string) error {
	pw, err := GetPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword(a.out, "Repeat password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		return errors.New("passwords do not match")
	}

	u, err := a.users.Create(ctx, models.UserInput{Username: username, Email: email, Password: string(pw)})
	if err != nil {
		return err
	}
	token, err := a.activations.GenerateToken(ctx, u.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created user %s (%s)\nActivation token: %s\n", u.Username, u.ID, token)
	return nil
}

func (a *App) activate(ctx context.Context, token string) error {
	t, err := a.activations.ActivateAccount(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Activated user %s\n", t.UserID)
	return nil
}

func (a *App) grant(ctx context.Context, username string, names []string) error {
	features, err := auth.ParseFeatures(names)
	if err != nil {
		return err
	}
	u, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	u, err = a.users.SetFeatures(ctx, u.ID, features)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", u.Username, strings.Join(u.Features, " "))
	return nil
}

func (a *App) listFeatures() {
	for _, f := range auth.All() {
		fmt.Fprintln(a.out, f)
	}
}

// Describe renders err for the terminal, including the suggested action of
// client-facing errors.
func Describe(err error) string {
	var ce *common.Error
	if errors.As(err, &ce) {
		return ce.Message + " " + ce.Action
	}
	return err.Error()
}
