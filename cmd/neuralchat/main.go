// Package main provides the neuralchat CLI application entry point.
// neuralchat is a terminal chat client for a local model server: it keeps
// named conversation sessions, streams responses, and previews assistant
// markdown in the terminal.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"neuralchat/internal/client"
	"neuralchat/internal/context"
	"neuralchat/internal/logger"
	"neuralchat/internal/render"
	"neuralchat/internal/services"
	"neuralchat/internal/storage"
	"neuralchat/internal/version"
)

var (
	logLevel string
	logFile  string
	testMode bool
	endpoint string
	dataDir  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "neuralchat",
	Short: "neuralchat - terminal chat client with streaming responses",
	Long: `neuralchat is a terminal chat client for a local model server.
It keeps named conversation sessions, streams responses token by token,
and renders assistant markdown in the terminal.`,
	Run: runChat,
}

// exportCmd writes one session as a JSON document
var exportCmd = &cobra.Command{
	Use:   "export <session-id> <file>",
	Short: "Export a session as a JSON document",
	Args:  cobra.ExactArgs(2),
	Run:   runExport,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		if detailed, _ := cmd.Flags().GetBool("detailed"); detailed {
			fmt.Println(version.GetDetailedVersion())
			return
		}
		fmt.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Chat backend base URL [default: "+client.DefaultBaseURL+"]")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for persisted sessions and settings")

	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding endpoint flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding data-dir flag: %v\n", err)
		os.Exit(1)
	}

	versionCmd.Flags().Bool("detailed", false, "Show detailed version and build information")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// Best-effort .env loading; absence is fine
	_ = godotenv.Load()

	viper.SetEnvPrefix("NEURALCHAT")
	viper.AutomaticEnv()

	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// buildCore wires the context, the services, and the transport together.
func buildCore(display services.Display) (*context.ChatContext, *services.SessionService, *services.ConversationService, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}

	chatCtx := context.New(store)
	chatCtx.SetTestMode(testMode)
	if err := chatCtx.Initialize(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize context: %w", err)
	}

	baseURL := viper.GetString("endpoint")
	if baseURL == "" {
		baseURL = endpoint
	}

	sessions := services.NewSessionService()
	conversation := services.NewConversationService(
		sessions,
		client.NewClient(baseURL, 30*time.Second),
		render.New(chatCtx),
		display,
	)

	registry := services.NewRegistry()
	if err := registry.RegisterService(sessions); err != nil {
		return nil, nil, nil, err
	}
	if err := registry.RegisterService(conversation); err != nil {
		return nil, nil, nil, err
	}
	if err := registry.InitializeAll(chatCtx); err != nil {
		return nil, nil, nil, err
	}

	return chatCtx, sessions, conversation, nil
}

// openStore picks the persistence backend: the configured data directory,
// the user config directory, or memory when neither is writable.
func openStore() (storage.Store, error) {
	dir := viper.GetString("data-dir")
	if dir == "" {
		dir = dataDir
	}
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			logger.Warn("No user config directory, sessions will not persist", "error", err)
			return storage.NewMemoryStore(), nil
		}
		dir = filepath.Join(configDir, "neuralchat")
	}

	store, err := storage.NewFileStore(dir)
	if err != nil {
		logger.Warn("Falling back to in-memory storage", "error", err)
		return storage.NewMemoryStore(), nil
	}
	return store, nil
}

func runExport(_ *cobra.Command, args []string) {
	chatCtx, sessions, _, err := buildCore(newTerminalDisplay())
	if err != nil {
		logger.Fatal("Failed to initialize chat core", "error", err)
	}
	defer func() { _ = chatCtx.Dispose() }()

	if err := sessions.ExportToFile(args[0], args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Exported session %s to %s\n", args[0], args[1])
}
