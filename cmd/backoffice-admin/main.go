// Package main is the administrative CLI for the Jivhala Motors back-office.
// It manages user accounts and schema migrations without going through the
// HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/config"
	"github.com/jivhala-motors/backoffice/internal/domain"
	repository "github.com/jivhala-motors/backoffice/internal/repository/factory"
	"github.com/jivhala-motors/backoffice/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("Jivhala Motors Back-Office Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = runUser(args)

	case "seed":
		err = runSeed(args)

	case "migrate":
		err = runMigrate(args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env opens the repository layer and user service from configuration.
func env(configPath string) (*repository.Repositories, *service.UserService, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	repos, err := repository.New(context.Background(), cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	return repos, service.NewUserService(repos.Users, logger), nil
}

func runUser(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: backoffice-admin user <create|list|set-active|set-password> [flags]")
	}

	switch args[0] {
	case "create":
		return runUserCreate(args[1:])
	case "list":
		return runUserList(args[1:])
	case "set-active":
		return runUserSetActive(args[1:])
	case "set-password":
		return runUserSetPassword(args[1:])
	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

func runUserCreate(args []string) error {
	fs := flag.NewFlagSet("user create", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "login username (required)")
	email := fs.String("email", "", "email address (required)")
	password := fs.String("password", "", "initial password (required)")
	name := fs.String("name", "", "display name")
	role := fs.String("role", "", "role: admin or user")
	_ = fs.Parse(args)

	repos, users, err := env(*configPath)
	if err != nil {
		return err
	}
	defer repos.Close()

	user, err := users.Create(context.Background(), service.CreateUserInput{
		Username: *username,
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     domain.UserRole(*role),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created user %q (ID %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func runUserList(args []string) error {
	fs := flag.NewFlagSet("user list", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	repos, users, err := env(*configPath)
	if err != nil {
		return err
	}
	defer repos.Close()

	list, err := users.List(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tNAME\tROLE\tACTIVE\tCREATED")
	for _, u := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%s\n",
			u.ID, u.Username, u.Email, u.Name, u.Role, u.IsActive,
			u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runUserSetActive(args []string) error {
	fs := flag.NewFlagSet("user set-active", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	id := fs.Int64("id", 0, "user ID (required)")
	active := fs.Bool("active", true, "whether the account may log in")
	_ = fs.Parse(args)

	if *id == 0 {
		return errors.New("-id is required")
	}

	repos, users, err := env(*configPath)
	if err != nil {
		return err
	}
	defer repos.Close()

	if err := users.SetActive(context.Background(), *id, *active); err != nil {
		return err
	}
	fmt.Printf("User %d active=%t\n", *id, *active)
	return nil
}

func runUserSetPassword(args []string) error {
	fs := flag.NewFlagSet("user set-password", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	id := fs.Int64("id", 0, "user ID (required)")
	password := fs.String("password", "", "new password (required)")
	_ = fs.Parse(args)

	if *id == 0 {
		return errors.New("-id is required")
	}

	repos, users, err := env(*configPath)
	if err != nil {
		return err
	}
	defer repos.Close()

	if err := users.SetPassword(context.Background(), *id, *password); err != nil {
		return err
	}
	fmt.Printf("Password updated for user %d\n", *id)
	return nil
}

// runSeed creates the default admin account when no users exist yet.
func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "admin", "seed admin username")
	email := fs.String("email", "admin@jivhalamotors.com", "seed admin email")
	password := fs.String("password", "", "seed admin password (required)")
	_ = fs.Parse(args)

	if *password == "" {
		return errors.New("-password is required")
	}

	repos, users, err := env(*configPath)
	if err != nil {
		return err
	}
	defer repos.Close()

	ctx := context.Background()
	if err := repos.Migrate(ctx); err != nil {
		return err
	}

	existing, err := repos.Users.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Println("Users already exist, nothing to seed")
		return nil
	}

	user, err := users.Create(ctx, service.CreateUserInput{
		Username: *username,
		Email:    *email,
		Password: *password,
		Name:     "Administrator",
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Seeded admin user %q (ID %d)\n", user.Username, user.ID)
	return nil
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	repos, _, err := env(*configPath)
	if err != nil {
		return err
	}
	defer repos.Close()

	if err := repos.Migrate(context.Background()); err != nil {
		return err
	}
	fmt.Println("Migrations applied")
	return nil
}

func printUsage() {
	fmt.Println(`Jivhala Motors Back-Office Admin CLI

Usage:
  backoffice-admin <command> [arguments]

Commands:
  user create        Create a user account
  user list          List user accounts
  user set-active    Enable or disable an account
  user set-password  Reset an account password
  seed               Apply migrations and create the first admin user
  migrate            Apply database migrations
  version            Print version information
  help               Show this help message

Examples:
  backoffice-admin user create -username admin -email admin@example.com -password secret123
  backoffice-admin user set-active -id 2 -active=false
  backoffice-admin seed -password secret123

All commands honor -config and the BACKOFFICE_* environment variables.`)
}
