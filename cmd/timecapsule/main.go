package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"timecapsule/internal/app"
	"timecapsule/internal/capsule"
	"timecapsule/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Lock", "Unlock").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		// No config file yet: fall back to defaults so the tool works
		// out of the box without a config init.
		cfg = config.NewConfig(defaults["base_dir"])
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "timecapsule",
	Short: "A time capsule for your messages: encrypt content that can only be decrypted after a specific date",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Storage: %s (%s)\n", cfg.Storage.Type, cfg.Storage.Root)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Storage Type: %s\n", cfg.Storage.Type)
		switch cfg.Storage.Type {
		case "sqlite":
			fmt.Printf("DB Path:      %s\n", cfg.Storage.DBPath)
		case "s3":
			fmt.Printf("S3 Bucket:    %s\n", cfg.Storage.S3Bucket)
			fmt.Printf("S3 Prefix:    %s\n", cfg.Storage.S3Prefix)
		default:
			fmt.Printf("Root:         %s\n", cfg.Storage.Root)
		}
		return nil
	},
}

// lock command
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock a message until a specific date",
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		file, _ := cmd.Flags().GetString("file")
		date, _ := cmd.Flags().GetString("date")
		label, _ := cmd.Flags().GetString("label")
		output, _ := cmd.Flags().GetString("output")

		content, err := getMessageContent(message, file)
		if err != nil {
			return err
		}

		unlockDate, err := app.ParseDate(date)
		if err != nil {
			return err
		}

		password, err := promptPassword("Enter password to encrypt the message: ")
		if err != nil {
			return err
		}

		a, err := newApp("Lock")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Lock(content, password, unlockDate, label, output)
		if err != nil {
			return err
		}

		fmt.Println("Message locked successfully.")
		fmt.Printf("ID:             %s\n", result.ID)
		fmt.Printf("Unlock date:    %s\n", result.UnlockDate.Format("2006-01-02 15:04:05 UTC"))
		fmt.Printf("Time remaining: %s\n", app.FormatDuration(result.Remaining))
		return nil
	},
}

// unlock command
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Try to unlock a message",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		file, _ := cmd.Flags().GetString("file")

		a, err := newApp("Unlock")
		if err != nil {
			return err
		}
		defer a.Close()

		env, err := a.LoadCapsule(id, file)
		if err != nil {
			return err
		}

		if !env.Unlockable(a.Now()) {
			fmt.Println("Message is still locked.")
			fmt.Printf("Unlock date:    %s\n", env.UnlockDate.Format("2006-01-02 15:04:05 UTC"))
			fmt.Printf("Time remaining: %s\n", app.FormatDuration(env.Remaining(a.Now())))
			return nil
		}

		password, err := promptPassword("Enter password to decrypt the message: ")
		if err != nil {
			return err
		}

		content, err := a.Open(env, password)
		if err != nil {
			var locked *capsule.StillLockedError
			if errors.As(err, &locked) {
				fmt.Println("Message is still locked.")
				fmt.Printf("Time remaining: %s\n", app.FormatDuration(locked.Remaining))
				return nil
			}
			return fmt.Errorf("failed to unlock message: %w", err)
		}

		fmt.Println("Message unlocked successfully.")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println(content)
		fmt.Println(strings.Repeat("=", 50))
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all locked messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		capsules, err := a.List()
		if err != nil {
			return err
		}

		if len(capsules) == 0 {
			fmt.Println("No locked messages found.")
			return nil
		}

		now := a.Now()
		for _, id := range sortedIDs(capsules) {
			env := capsules[id]
			status := "LOCKED"
			if env.Unlockable(now) {
				status = "READY "
			}
			label := env.Label
			if label == "" {
				label = "(no label)"
			}
			fmt.Printf("%s  %s  %s  %s\n",
				id, status, env.UnlockDate.Format("2006-01-02 15:04 UTC"), label)
		}
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check if any messages are ready to unlock",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Check")
		if err != nil {
			return err
		}
		defer a.Close()

		ready, err := a.Ready()
		if err != nil {
			return err
		}

		if len(ready) == 0 {
			fmt.Println("No messages are ready to unlock yet.")
			return nil
		}

		fmt.Printf("%d message(s) are ready to unlock:\n", len(ready))
		for _, id := range sortedIDs(ready) {
			label := ready[id].Label
			if label == "" {
				label = "(no label)"
			}
			fmt.Printf("  %s: %s\n", id, label)
		}
		fmt.Println("\nUse 'timecapsule unlock --id <ID>' to unlock them")
		return nil
	},
}

// getMessageContent resolves the message body from the --message flag, the
// --file flag, or stdin when neither is given.
func getMessageContent(message, file string) (string, error) {
	switch {
	case message != "" && file != "":
		return "", fmt.Errorf("cannot specify both --message and --file")
	case message != "":
		return message, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", file, err)
		}
		return string(data), nil
	default:
		fmt.Fprintln(os.Stderr, "Enter your message (press Ctrl+D when done):")
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading message from stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
}

func sortedIDs(capsules map[capsule.ID]*capsule.Envelope) []capsule.ID {
	ids := make([]capsule.ID, 0, len(capsules))
	for id := range capsules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// lock flags
	lockCmd.Flags().StringP("message", "m", "", "Message to lock (or use --file to read from file)")
	lockCmd.Flags().StringP("file", "f", "", "File to read message from")
	lockCmd.Flags().StringP("date", "d", "", "Unlock date (e.g. \"2026-12-25\", \"2026-12-25 15:30:00\")")
	lockCmd.Flags().StringP("label", "l", "", "Optional label for the message")
	lockCmd.Flags().StringP("output", "o", "", "Output file (optional, defaults to storage directory)")
	lockCmd.MarkFlagRequired("date")

	// unlock flags
	unlockCmd.Flags().StringP("id", "i", "", "Message ID")
	unlockCmd.Flags().StringP("file", "f", "", "File path to unlock")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
}
