// main.go - Admin control tool for linkbio
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"linkbio/internal"
	"linkbio/internal/config"
	"linkbio/internal/database"
	"linkbio/internal/profiles"
	"linkbio/internal/seeder"
	"linkbio/internal/timeframe"
	"linkbio/internal/users"

	"log/slog"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

var stdin = bufio.NewReader(os.Stdin)

// The set of available commands
var commands = []Command{
	&CreateOwnerCommand{},
	&ChangePasswordCommand{},
	&MigrateCommand{},
	&SeedCommand{},
	&SummaryCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	// Parse global flags
	flag.Parse()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Set up context with cancellation for cleanup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals in a separate goroutine
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	// Parse command and arguments
	cmdName, args := parseArgs()

	// Find the requested command
	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	if _, ok := cmd.(*HelpCommand); ok {
		_ = cmd.Execute(ctx, nil, args)
		return
	}

	// Try to initialize the app
	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// Execute the command
	err = cmd.Execute(ctx, app, args)

	// Ensure app is cleaned up
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := app.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("Warning: Cleanup error: %v", shutdownErr)
	}

	if err != nil {
		log.Fatalf("Command failed: %v", err)
	}
	log.Printf("Command %s completed successfully", cmd.Name())
}

// CreateOwnerCommand creates an owner account
type CreateOwnerCommand struct{}

func (c *CreateOwnerCommand) Name() string        { return "create-owner" }
func (c *CreateOwnerCommand) Description() string { return "Creates an owner account: create-owner <email> [password]" }

func (c *CreateOwnerCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <email> [password]", c.Name())
	}
	email := args[0]

	password := ""
	if len(args) >= 2 {
		password = args[1]
	} else {
		var err error
		if password, err = promptNewPassword(); err != nil {
			return err
		}
	}

	log.Printf("Creating owner account: %s", email)
	if err := users.CreateOwner(app.DBManager.GetConnection(), email, password); err != nil {
		if errors.Is(err, users.ErrUserExists) {
			log.Printf("User %s already exists", email)
			return nil
		}
		return fmt.Errorf("failed to create owner: %w", err)
	}
	return nil
}

// ChangePasswordCommand updates the password of an existing owner
type ChangePasswordCommand struct{}

func (c *ChangePasswordCommand) Name() string { return "change-password" }
func (c *ChangePasswordCommand) Description() string {
	return "Changes the password of an owner account: change-password [email]"
}

func (c *ChangePasswordCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	email := ""
	if len(args) >= 1 {
		email = args[0]
	} else {
		fmt.Print("Enter owner email: ")
		input, _ := stdin.ReadString('\n')
		email = strings.TrimSpace(input)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	db := app.DBManager.GetConnection()
	if _, err := users.FindByEmail(db, email); err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}

	if err := users.ChangePassword(db, email, password); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Println("Password updated successfully")
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with a demo profile and events
type SeedCommand struct{}

func (c *SeedCommand) Name() string { return "seed" }
func (c *SeedCommand) Description() string {
	return "Seeds a demo profile: seed [--file profile.yml] [--events N] [--days N]"
}

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	eventCount := fs.Int("events", 1000, "number of events to generate")
	days := fs.Int("days", 30, "days of history to spread events over")
	file := fs.String("file", "", "YAML fixture with the profile and its links")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fixture := seeder.DefaultFixture()
	if *file != "" {
		loaded, err := seeder.LoadFixture(*file)
		if err != nil {
			return err
		}
		fixture = loaded
	}

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	se := seeder.NewSeeder(app.DBManager, slog.Default(), *eventCount)
	se.Days = *days
	profile, err := se.Run(ctx, fixture)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded profile %s (%s)\n", profile.Name, profile.ID)
	return nil
}

// SummaryCommand prints a profile's analytics summary as JSON
type SummaryCommand struct{}

func (c *SummaryCommand) Name() string { return "summary" }
func (c *SummaryCommand) Description() string {
	return "Prints analytics as JSON: summary --profile ID [--from YYYY-MM-DD] [--to YYYY-MM-DD] [--tz Zone]"
}

func (c *SummaryCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	cfg := config.GetConfig()

	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	profileID := fs.String("profile", "", "profile id")
	from := fs.String("from", "", "range start")
	to := fs.String("to", "", "range end")
	tz := fs.String("tz", cfg.DefaultTimezone, "timezone for date-only bounds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *profileID == "" {
		return fmt.Errorf("--profile is required")
	}

	if _, err := profiles.GetProfileOrNotFound(app.DBManager.GetConnection(), *profileID); err != nil {
		return err
	}

	r, err := timeframe.NewRangeParser().ParseRange(timeframe.RangeParserParams{
		FromDate: *from,
		ToDate:   *to,
		Tz:       *tz,
	})
	if err != nil {
		return err
	}

	summary := app.Components.Analytics.GetSummary(ctx, *profileID, r)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	counts, err := database.TableCounts(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		log.Printf("- %s: %d", table, counts[table])
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	stats := sqlDB.Stats()
	log.Printf("- Open Connections: %d", stats.OpenConnections)
	log.Printf("- In Use: %d", stats.InUse)
	log.Printf("- Idle: %d", stats.Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// promptNewPassword reads a password twice without echo when stdin is a
// terminal.
func promptNewPassword() (string, error) {
	first, err := readSecret("Enter new password: ")
	if err != nil {
		return "", err
	}
	second, err := readSecret("Confirm new password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	if first == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return first, nil
}

func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}
	input, err := stdin.ReadString('\n')
	if err != nil && input == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: lbctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
