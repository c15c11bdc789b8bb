package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kataforge/kataforge/internal/profile"
	"github.com/kataforge/kataforge/internal/version"
	"github.com/kataforge/kataforge/server"
	"github.com/kataforge/kataforge/store"
	"github.com/kataforge/kataforge/store/db"
)

const (
	greetingBanner = `kataforge - mastery & engagement state engine`
)

var (
	rootCmd = &cobra.Command{
		Use:   "kataforge",
		Short: "Mastery and engagement state engine for practice platforms",
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:                     viper.GetString("mode"),
				Addr:                     viper.GetString("addr"),
				Port:                     viper.GetInt("port"),
				Data:                     viper.GetString("data"),
				Driver:                   viper.GetString("driver"),
				DSN:                      viper.GetString("dsn"),
				StreakDecayInterval:      viper.GetDuration("streak-decay-interval"),
				AchievementSweepInterval: viper.GetDuration("achievement-sweep-interval"),
				Version:                  version.GetCurrentVersion(viper.GetString("mode")),
			}
			if err := instanceProfile.Validate(); err != nil {
				slog.Error("invalid configuration", slog.Any("error", err))
				os.Exit(1)
			}
			if instanceProfile.IsDev() {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				slog.Error("failed to create db driver", slog.Any("error", err))
				os.Exit(1)
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				slog.Error("failed to migrate db", slog.Any("error", err))
				os.Exit(1)
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				slog.Error("failed to create server", slog.Any("error", err))
				os.Exit(1)
			}

			sigC := make(chan os.Signal, 1)
			signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigC
				slog.Info("received signal, shutting down", slog.String("signal", sig.String()))
				s.Shutdown(ctx)
				cancel()
			}()

			printGreetings(instanceProfile)

			if err := s.Start(ctx); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("failed to start server", slog.Any("error", err))
					cancel()
				}
			}

			// Wait for signal handling to finish.
			<-ctx.Done()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8231)
	viper.SetDefault("data", "")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("streak-decay-interval", 24*time.Hour)
	viper.SetDefault("achievement-sweep-interval", 15*time.Minute)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address for the server")
	rootCmd.PersistentFlags().Int("port", 8231, "binding port for the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().Duration("streak-decay-interval", 24*time.Hour, "how often the streak decay evaluator runs")
	rootCmd.PersistentFlags().Duration("achievement-sweep-interval", 15*time.Minute, "how often the achievement sweep runs")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "streak-decay-interval", "achievement-sweep-interval"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("kataforge")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func printGreetings(p *profile.Profile) {
	fmt.Println(greetingBanner)
	fmt.Printf("version %s, mode %s, driver %s\n", p.Version, p.Mode, p.Driver)
	fmt.Printf("listening on %s:%d\n", p.Addr, p.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to run command", slog.Any("error", err))
		os.Exit(1)
	}
}
