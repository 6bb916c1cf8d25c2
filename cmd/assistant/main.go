package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/server"
	"github.com/omadigital23/assistant/server/answer"
	"github.com/omadigital23/assistant/store"
	"github.com/omadigital23/assistant/store/db"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "assistant",
		Short: "Answers questions about the agency's services from a curated knowledge base.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger(viper.GetString("log-level"), viper.GetString("log-format"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				_ = storeInstance.Close()
				return errors.Wrap(err, "failed to create server")
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			printGreetings(instanceProfile)
			if err := s.Start(ctx); err != nil {
				s.Shutdown(ctx)
				return err
			}
			<-ctx.Done()
			return nil
		},
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and print the envelope as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				_ = storeInstance.Close()
				return errors.Wrap(err, "failed to create server")
			}
			defer s.Close(ctx)

			language, _ := cmd.Flags().GetString("language")
			limit, _ := cmd.Flags().GetInt("limit")
			env := s.Controller.Answer(ctx, strings.Join(args, " "), answer.Options{Language: language, Limit: limit})

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)
			return encoder.Encode(env)
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Upsert the knowledge entries of a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return errors.New("--file is required")
			}
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			ctx := context.Background()

			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			f, err := os.Open(path)
			if err != nil {
				return errors.Wrapf(err, "failed to open seed file %s", path)
			}
			defer f.Close()

			n, err := storeInstance.Seed(ctx, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d knowledge entries\n", n)
			return nil
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver, sqlite or postgres")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "log-level", "log-format"} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}

	askCmd.Flags().String("language", "", "answer language, fr or en; empty searches every language")
	askCmd.Flags().Int("limit", 0, "number of entries considered")
	seedCmd.Flags().String("file", "", "YAML knowledge file")

	viper.SetEnvPrefix("assistant")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(serveCmd, askCmd, seedCmd)
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	return instanceProfile, nil
}

func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, err
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return storeInstance, nil
}

func setupLogger(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return errors.Errorf("invalid log format %q: use text or json", format)
	}
	slog.SetDefault(slog.New(server.NewLogHandler(handler)))
	return nil
}

func printGreetings(p *profile.Profile) {
	if p.IsDev() {
		fmt.Printf("Development mode is enabled\nDSN: %s\n", p.DSN)
	}
	fmt.Printf("Version %s has been started on port %d\n", p.Version, p.Port)
	if !p.IsLLMEnabled() {
		fmt.Println("No generative model configured: answers come from the knowledge base only")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
