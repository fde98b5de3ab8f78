package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/rpsplanner/internal/catalog"
	"github.com/pavelanni/rpsplanner/internal/export"
	"github.com/pavelanni/rpsplanner/internal/handler"
	appI18n "github.com/pavelanni/rpsplanner/internal/i18n"
	"github.com/pavelanni/rpsplanner/internal/llm"
	"github.com/pavelanni/rpsplanner/internal/llm/prompts"
	"github.com/pavelanni/rpsplanner/internal/model"
	"github.com/pavelanni/rpsplanner/internal/notify"
	"github.com/pavelanni/rpsplanner/internal/payload"
	"github.com/pavelanni/rpsplanner/internal/store"
	"github.com/pavelanni/rpsplanner/internal/validation"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rpsplanner",
		Short: "Semester lesson plan (RPS) editor and review service",
		PersistentPreRun: func(*cobra.Command, []string) {
			loadDotEnv()
		},
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), importCmd(), createUserCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `rpsplanner --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// loadDotEnv reads .env from the working directory when there is one.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		slog.Warn("error reading .env", "error", err)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "rpsplanner.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "id", "Default language (en, id)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /rps)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set RPSPLANNER_ADMIN_PASSWORD)")
	f.String("cpl-catalog", "", "YAML file with the CPL catalog and courses, imported at startup")
	f.String("redis-url", "", "Redis URL for the unread-notification cache (empty = in-memory)")
	f.Duration("redis-ttl", 10*time.Minute, "Lifetime of cached unread counters")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables AI review)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("prompt-variant", string(prompts.Standard), "Review prompt variant (strict, standard, lenient)")
	f.String("session-cleanup", "@hourly", "Cron schedule for removing expired sessions")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export RPS documents as XLSX or JSON",
		RunE:  runExport,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.Int64("rps-id", 0, "RPS to export (0 = every RPS, JSON only)")
	f.String("status", "", "With --rps-id 0, export only documents in this status")
	f.StringP("format", "f", "json", "Output format (json, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-cpl",
		Short: "Import the CPL catalog and course list from YAML",
		RunE:  runImport,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("file", "", "Catalog YAML file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func createUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account",
		RunE:  runCreateUser,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("username", "", "Login name (required)")
	f.String("display-name", "", "Full name with titles")
	f.String("nip", "", "Employee number")
	f.String("role", string(model.UserRoleDosen), "Role (kaprodi, dosen, admin)")
	f.String("password", "", "Password (or set RPSPLANNER_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("RPSPLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("rpsplanner")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/rpsplanner")
	v.AddConfigPath("/etc/rpsplanner")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// setup prepares logging and configuration for a command.
func setup(cmd *cobra.Command) *viper.Viper {
	v := viperForCmd(cmd)
	setupLogging(v)
	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := setup(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if path := v.GetString("cpl-catalog"); path != "" {
		if _, err := catalog.ImportFile(db, path); err != nil {
			return fmt.Errorf("import catalog: %w", err)
		}
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var counter notify.Counter
	if url := v.GetString("redis-url"); url != "" {
		rc, err := notify.NewRedisCounter(ctx, url, v.GetDuration("redis-ttl"))
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		counter = rc
		slog.Info("redis cache OK")
	}
	notifier := notify.New(db, counter)

	var reviewer handler.Reviewer
	if url := v.GetString("llm-url"); url != "" {
		promptVariant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
		if !prompts.IsValidVariant(promptVariant) {
			slog.Warn("invalid prompt-variant, using standard", "variant", promptVariant)
			promptVariant = string(prompts.Standard)
		}
		client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"), promptVariant)
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := client.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		reviewer = client
	} else {
		slog.Info("AI review disabled, no --llm-url given")
	}

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := sched.AddFunc(v.GetString("session-cleanup"), func() {
		n, err := db.CleanupExpiredSessions()
		if err != nil {
			slog.Error("session cleanup failed", "error", err)
			return
		}
		slog.Debug("removed expired sessions", "count", n)
	}); err != nil {
		return fmt.Errorf("schedule session cleanup: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.AppConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Lang:          lang,
	}
	h := handler.New(db, notifier, reviewer, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	srv := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", srv.Addr,
			"lang", lang,
			"base_path", basePath,
			"redis", v.GetString("redis-url") != "",
			"llm_url", v.GetString("llm-url"),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := setup(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	format := strings.ToLower(v.GetString("format"))
	id := v.GetInt64("rps-id")
	if id == 0 {
		if format != "json" {
			return fmt.Errorf("format %q needs --rps-id", format)
		}
		all, err := db.ExportAllRPS(store.RPSFilter{Status: model.RPSStatus(v.GetString("status"))})
		if err != nil {
			return fmt.Errorf("export rps: %w", err)
		}
		docs := make([]payload.Document, 0, len(all))
		for _, e := range all {
			docs = append(docs, payload.FromRPS(e.RPS))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		slog.Info("exported rps", "count", len(docs))
		return nil
	}

	e, err := db.ExportRPS(id)
	if err != nil {
		return fmt.Errorf("export rps: %w", err)
	}
	switch format {
	case "json":
		err = export.WriteJSON(w, e)
	case "xlsx":
		err = export.WriteXLSX(w, e)
	default:
		return fmt.Errorf("unknown format %q (json, xlsx)", format)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	v := setup(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	res, err := catalog.ImportFile(db, v.GetString("file"))
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "catalog unchanged since last import")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cpl inserted: %d, updated: %d; courses added: %d\n",
		res.Inserted, res.Updated, res.Courses)
	return nil
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	v := setup(cmd)

	in := validation.UserInput{
		Username:    v.GetString("username"),
		DisplayName: v.GetString("display-name"),
		NIP:         v.GetString("nip"),
		Password:    v.GetString("password"),
		Role:        v.GetString("role"),
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}
	if errs := in.Check("en"); len(errs) > 0 {
		return errs
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	id, err := db.CreateUser(model.User{
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		NIP:          in.NIP,
		PasswordHash: string(hash),
		Role:         model.UserRole(in.Role),
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (id %d)\n", in.Role, in.Username, id)
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or RPSPLANNER_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
