package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nebari-dev/wabastudio/internal/config"
	"github.com/nebari-dev/wabastudio/internal/db"
	"github.com/nebari-dev/wabastudio/internal/logger"
	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

var (
	userEmail         string
	userAdmin         bool
	userPasswordStdin bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user in the configured database",
	Long: `Creates a user directly in the database named by the server configuration.
The password is read from the terminal, or from stdin with --password-stdin.

Examples:
  wabastudio user create alice --email alice@example.com
  wabastudio user create ops --admin
  echo "$PASS" | wabastudio user create ci --password-stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address (default <username>@wabastudio.local)")
	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "Grant the admin role")
	userCreateCmd.Flags().BoolVar(&userPasswordStdin, "password-stdin", false, "Read the password from stdin")
	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])
	if username == "" {
		return errors.New("username is required")
	}

	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), userPasswordStdin)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.Init(cfg.Log.Format, "warn")

	database, err := db.New(cfg.Database, "warn")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := rbac.InitEnforcer(database, log); err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	user, err := createUser(database, username, userEmail, password, userAdmin)
	if err != nil {
		return err
	}

	role := "user"
	if userAdmin {
		role = "admin"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", role, user.Username, user.ID)
	return nil
}

func createUser(database *gorm.DB, username, email, password string, admin bool) (*models.User, error) {
	var count int64
	if err := database.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("user %q already exists", username)
	}

	if email == "" {
		email = username + "@wabastudio.local"
	}
	user, err := db.CreateUser(database, username, email, password)
	if err != nil {
		return nil, err
	}
	if admin {
		if err := rbac.MakeAdmin(user.ID); err != nil {
			return nil, fmt.Errorf("failed to grant admin role: %w", err)
		}
	}
	return user, nil
}

func readPassword(in io.Reader, prompt io.Writer, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", errors.New("password is empty")
		}
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; use --password-stdin")
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprint(prompt, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password is empty")
	}
	return string(first), nil
}
