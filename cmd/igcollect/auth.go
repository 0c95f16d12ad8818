package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igcollect/pkg/auth"
	"igcollect/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage collection credentials",
	Long: `Manage stored collection credentials securely.

igcollect uses two independent credential halves:
  - an actor service API token (batch collection commands)
  - Instagram session cookies (--direct collection)

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [label]",
	Short: "Store collection credentials securely",
	Long: `Store collection credentials in the system keychain or encrypted file.

You will be prompted for:
  - Actor service API token (press Enter to skip)
  - Session ID (from the sessionid cookie; press Enter to skip)
  - CSRF token (from the csrftoken cookie)
  - ds_user_id (your numeric account id)

At least one half (token or cookie pair) is required. Credentials are
stored under a label, 'default' unless one is given.`,
	Example: `  # Interactive login under the default label
  igcollect auth login

  # Store a second credential set
  igcollect auth login burner`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored credential sets",
	Long:  `Show all stored credential sets with sensitive values masked.`,
	Run:   runStatus,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [label]",
	Short: "Remove stored credentials",
	Long: `Remove a stored credential set, or every set with --all.

Without a label the default set is removed.`,
	Example: `  igcollect auth logout
  igcollect auth logout burner
  igcollect auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to obtain credentials",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowCredentialGuide()
	},
}

var logoutAll bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(guideCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored credential set")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	label := "default"
	if len(args) > 0 {
		label = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowQuickGuide()
	fmt.Println()

	// Existing set under this label?
	if existing, _ := manager.Retrieve(label); existing != nil {
		fmt.Printf("⚠️  Credential set '%s' already exists. Update it? (y/N): ", label)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("🔐 Enter your values (hidden as you type; press Enter to skip):")
	fmt.Println()

	fmt.Print("Actor service API token: ")
	apiToken, err := readSecret()
	if err != nil {
		ui.PrintError("Failed to read API token", err.Error())
		os.Exit(1)
	}

	fmt.Print("sessionid cookie value: ")
	sessionID, err := readSecret()
	if err != nil {
		ui.PrintError("Failed to read session ID", err.Error())
		os.Exit(1)
	}

	var csrfToken, dsUserID string
	if sessionID != "" {
		fmt.Print("csrftoken cookie value: ")
		csrfToken, err = readSecret()
		if err != nil {
			ui.PrintError("Failed to read CSRF token", err.Error())
			os.Exit(1)
		}

		fmt.Print("ds_user_id cookie value: ")
		input, _ := reader.ReadString('\n')
		dsUserID = strings.TrimSpace(input)
	}

	fmt.Print("User Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	creds := &auth.Credentials{
		Label:        label,
		APIToken:     apiToken,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		DSUserID:     dsUserID,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	fmt.Println("\n💾 Storing credentials securely...")
	if err := manager.Store(creds); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	masked := auth.Sanitize(creds)
	fmt.Println("\n📋 Stored:")
	fmt.Printf("   Label: %s\n", masked.Label)
	if masked.APIToken != "" {
		fmt.Printf("   API token: %s\n", masked.APIToken)
	}
	if masked.SessionID != "" {
		fmt.Printf("   Session ID: %s\n", masked.SessionID)
	}

	ui.PrintSuccess("Credentials saved: " + label)

	fmt.Println("\n📖 Quick start:")
	fmt.Println("   $ igcollect followers <target>            # actor service")
	fmt.Println("   $ igcollect followers <target> --direct   # session cookies")
	fmt.Println("\n⚠️  Never share your credentials or config files!")
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	sets, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list credentials", err.Error())
		os.Exit(1)
	}
	if len(sets) == 0 {
		ui.PrintInfo("No stored credentials", "Use 'igcollect auth login' to add some")
		return
	}

	ui.PrintHighlight("Stored Credential Sets")
	fmt.Println()
	for i, creds := range sets {
		masked := auth.Sanitize(creds)
		fmt.Printf("%d. Label: %s\n", i+1, masked.Label)
		if masked.APIToken != "" {
			fmt.Printf("   API token: %s\n", masked.APIToken)
		}
		if masked.SessionID != "" {
			fmt.Printf("   Session ID: %s\n", masked.SessionID)
			fmt.Printf("   CSRF token: %s\n", masked.CSRFToken)
		}
		if !masked.LastModified.IsZero() {
			fmt.Printf("   Last modified: %s\n", masked.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if logoutAll {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Remove ALL credential sets? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove credentials", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All credential sets removed")
		return
	}

	label := "default"
	if len(args) > 0 {
		label = args[0]
	}
	if err := manager.Delete(label); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Credential set removed: " + label)
}

// readSecret reads a value from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
