package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"aiverse.club/internal/auth"
	"aiverse.club/internal/obs"
	"aiverse.club/internal/session"
)

var (
	apiURL    string
	tokenFile string
	verbose   bool

	client *session.Client
)

var errDenied = errors.New("permission denied")

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDenied) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "clubctl",
	Short:         "Command line session for the aiverse.club API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path := tokenFile
		if path == "" {
			p, err := session.DefaultTokenPath()
			if err != nil {
				return err
			}
			path = p
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		log := obs.NewLogger(obs.LogOptions{Level: level, Format: "text", Output: os.Stderr})
		client = session.New(apiURL, session.FileStore{Path: path}, session.WithLogger(log))
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username|email>",
	Short: "Sign in and store the token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("AIVERSE_PASSWORD")
		}
		if password == "" {
			return errors.New("password required: --password or AIVERSE_PASSWORD")
		}
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		u, err := client.Login(ctx, args[0], password)
		if err != nil {
			return err
		}
		printUser(cmd, u)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		if err := client.Bootstrap(ctx); err != nil {
			return err
		}
		u, ok := client.User()
		if !ok {
			return errors.New("not signed in")
		}
		printUser(cmd, u)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		if err := client.Bootstrap(ctx); err != nil {
			return err
		}
		if err := client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var canCmd = &cobra.Command{
	Use:   "can <module>",
	Short: "Check whether the signed-in user may manage a module",
	Long:  "Modules: " + moduleNames() + ". Exits non-zero when denied.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := auth.ParseModule(args[0])
		if err != nil {
			return fmt.Errorf("unknown module %q (known: %s)", args[0], moduleNames())
		}
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		if err := client.Bootstrap(ctx); err != nil {
			return err
		}
		if !client.IsAuthenticated() {
			return errors.New("not signed in")
		}
		if client.HasPermission(m) {
			fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "denied")
		return errDenied
	},
}

func init() {
	defaultURL := os.Getenv("AIVERSE_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API base URL ($AIVERSE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "token location (default user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log session transitions")
	loginCmd.Flags().String("password", "", "password ($AIVERSE_PASSWORD)")

	rootCmd.AddCommand(loginCmd, whoamiCmd, logoutCmd, canCmd)
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 15*time.Second)
}

func printUser(cmd *cobra.Command, u session.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s <%s>\n", u.Username, u.Email)
	fmt.Fprintf(out, "role:        %s\n", u.Role)
	perms := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		perms = append(perms, string(p))
	}
	fmt.Fprintf(out, "permissions: %s\n", strings.Join(perms, ", "))
	if u.JuryMemberID != nil {
		fmt.Fprintf(out, "jury member: %s\n", *u.JuryMemberID)
	}
}

func moduleNames() string {
	names := make([]string, 0, len(auth.Modules))
	for _, m := range auth.Modules {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
