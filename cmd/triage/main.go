package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/inboxkit/triage/internal/config"
	"github.com/inboxkit/triage/internal/db"
	"github.com/inboxkit/triage/internal/gmail"
	"github.com/inboxkit/triage/internal/llm"
	"github.com/inboxkit/triage/internal/model"
	"github.com/inboxkit/triage/internal/rules"
	"github.com/inboxkit/triage/internal/services"
	"github.com/inboxkit/triage/internal/version"
	"github.com/inboxkit/triage/pkg/auth"
)

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/triage/config.json)")
	messageFlag := flag.String("message", "", "Path to a message JSON file to resolve actions for ('-' for stdin)")
	threadFlag := flag.String("thread", "", "Thread ID to fetch and annotate (requires Gmail credentials)")
	setOverrideFlag := flag.String("set-override", "", "Record an override as messageID=actionID")
	rulesFlag := flag.Bool("rules", false, "Print the compiled-in rule tables and exit")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s --message msg.json        # Print eligible and effective actions\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --set-override m1=archive # Record an explicit action choice\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --thread 18c2ab44ff01     # Fetch and annotate a conversation\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --rules                   # Dump the active rule tables\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  TRIAGE_CONFIG       Override default config file path\n")
		fmt.Fprintf(os.Stderr, "  TRIAGE_CREDENTIALS  Override default credentials file path\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	catalog := rules.NewCatalog()

	if *rulesFlag {
		snapshot, err := catalog.Snapshot()
		if err != nil {
			log.Fatalf("Could not render rule tables: %v", err)
		}
		fmt.Print(snapshot)
		return
	}

	cfg, err := config.LoadConfig(getConfigPath(*configPathFlag))
	if err != nil {
		log.Printf("Warning: could not load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	ctx := context.Background()

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	var overrides *db.OverrideStore
	if store, err := db.Open(ctx, dbPath); err == nil {
		defer func() { _ = store.Close() }()
		overrides = db.NewOverrideStore(store)
	} else {
		log.Printf("Warning: could not open override store: %v", err)
	}

	actionService := services.NewActionService(catalog, overrides)
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(expandPath(cfg.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			defer f.Close()
			actionService.SetLogger(log.New(f, "", log.LstdFlags))
		}
	}

	switch {
	case *setOverrideFlag != "":
		messageID, actionID, ok := strings.Cut(*setOverrideFlag, "=")
		if !ok {
			log.Fatal("--set-override expects messageID=actionID")
		}
		if err := actionService.SetOverride(ctx, cfg.Account, messageID, actionID); err != nil {
			log.Fatalf("Could not record override: %v", err)
		}
		fmt.Printf("Recorded %s -> %s\n", messageID, actionID)

	case *messageFlag != "":
		msg, err := readMessage(*messageFlag)
		if err != nil {
			log.Fatalf("Could not read message: %v", err)
		}
		printResolution(ctx, cfg, actionService, msg)

	case *threadFlag != "":
		if err := fetchAndPrintThread(ctx, cfg, *threadFlag); err != nil {
			log.Fatalf("Could not fetch thread: %v", err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printResolution(ctx context.Context, cfg *config.Config, actionService *services.ActionServiceImpl, msg *model.Message) {
	candidates := actionService.EligibleActions(ctx, msg)
	fmt.Printf("Eligible actions for %s (%s):\n", msg.ID, msg.Category)
	for _, cand := range candidates {
		marker := " "
		if cand.IsPrimary {
			marker = "*"
		}
		fmt.Printf("  %s %-14s %s\n", marker, cand.ID, cand.Label)
	}

	effective, err := actionService.EffectiveAction(ctx, cfg.Account, msg)
	if err != nil {
		log.Fatalf("Could not resolve effective action: %v", err)
	}
	fmt.Printf("Effective action: %s (%s)\n", effective.ID, effective.Label)

	if cfg.LLM.Enabled {
		provider, err := llm.NewProviderFromConfig(cfg.LLM.Provider, providerArg(cfg), cfg.LLM.Model, cfg.GetLLMTimeout())
		if err != nil {
			log.Printf("Warning: could not initialize LLM provider: %v", err)
			return
		}
		suggestService := services.NewSuggestService(provider)
		if suggested, err := suggestService.SuggestPrimary(ctx, msg, candidates); err == nil {
			fmt.Printf("Suggested primary: %s\n", suggested)
		} else {
			log.Printf("Warning: suggestion unavailable: %v", err)
		}
	}
}

func fetchAndPrintThread(ctx context.Context, cfg *config.Config, threadID string) error {
	credPath := getCredentialsPath(cfg.Credentials)
	tokenPath := cfg.Token
	if tokenPath == "" {
		_, tokenPath = config.DefaultCredentialPaths()
	}
	service, err := auth.NewGmailService(ctx, credPath, expandPath(tokenPath),
		"https://www.googleapis.com/auth/gmail.readonly",
	)
	if err != nil {
		return fmt.Errorf("could not initialize Gmail service: %w", err)
	}

	cache := services.NewThreadCacheService(gmail.NewClient(service))
	data, err := cache.GetOrFetch(ctx, threadID)
	if err != nil {
		return err
	}

	fmt.Printf("Thread %s: %d messages\n", data.ThreadID, len(data.Messages))
	for _, m := range data.Messages {
		fmt.Printf("  %s  %s  %s\n", m.Date.Format("2006-01-02 15:04"), m.From, m.Subject)
	}
	if len(data.DetectedDates) > 0 {
		fmt.Printf("Detected dates: %s\n", strings.Join(data.DetectedDates, ", "))
	}
	if len(data.DetectedAmounts) > 0 {
		fmt.Printf("Detected amounts: %s\n", strings.Join(data.DetectedAmounts, ", "))
	}
	return nil
}

func readMessage(path string) (*model.Message, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(expandPath(path))
	}
	if err != nil {
		return nil, err
	}

	msg := &model.Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("invalid message JSON: %w", err)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("message is missing an id")
	}
	return msg, nil
}

func providerArg(cfg *config.Config) string {
	if cfg.LLM.Provider == "bedrock" {
		region := cfg.LLM.Region
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		return region
	}
	return cfg.LLM.Endpoint
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable TRIAGE_CONFIG
// 3. Default path ~/.config/triage/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("TRIAGE_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}
	return config.DefaultConfigPath()
}

// getCredentialsPath returns the credentials file path using the following priority:
// 1. Environment variable TRIAGE_CREDENTIALS
// 2. Config file setting
// 3. Default path ~/.config/triage/credentials.json
func getCredentialsPath(configValue string) string {
	if envPath := os.Getenv("TRIAGE_CREDENTIALS"); envPath != "" {
		return expandPath(envPath)
	}
	if configValue != "" {
		return expandPath(configValue)
	}
	credPath, _ := config.DefaultCredentialPaths()
	return credPath
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}
