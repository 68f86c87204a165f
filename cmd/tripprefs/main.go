package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/tripprefs/internal/profile"
	"github.com/hrygo/tripprefs/server"
	"github.com/hrygo/tripprefs/server/auth"
	"github.com/hrygo/tripprefs/store"
	"github.com/hrygo/tripprefs/store/db"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "tripprefs",
		Short: `Travel preference onboarding service: selections, completion flag and cached profiles.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Upsert the travel preference catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			storeInstance, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			seeded, err := storeInstance.SeedCatalog(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d preferences\n", len(seeded))
			return nil
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user (development only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			storeInstance, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			instanceProfile := storeInstance.GetProfile()
			if !instanceProfile.IsDev() {
				return fmt.Errorf("token minting is disabled in prod mode")
			}

			username := viper.GetString("user")
			user, err := storeInstance.GetUser(ctx, &store.FindUser{Username: &username})
			if err != nil {
				return err
			}
			if user == nil {
				if user, err = storeInstance.CreateUser(ctx, &store.User{Username: username}); err != nil {
					return err
				}
				slog.Info("created user", slog.String("username", username), slog.Int("userID", int(user.ID)))
			}

			token, err := auth.GenerateAccessToken(user.ID, user.Username, time.Now().Add(auth.AccessTokenDuration), []byte(instanceProfile.Secret))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
)

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
		return nil, err
	}
	return instanceProfile, nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	instanceProfile, err := loadProfile()
	if err != nil {
		return nil, err
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return storeInstance, nil
}

func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeInstance, err := openStore(ctx)
	if err != nil {
		return err
	}
	instanceProfile := storeInstance.GetProfile()

	s, err := server.NewServer(ctx, instanceProfile, storeInstance)
	if err != nil {
		storeInstance.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}
	printGreetings(instanceProfile)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Start(gctx)
	})
	g.Go(func() error {
		// Ends on a signal, or when Start fails and cancels the group.
		<-gctx.Done()
		// gctx is already cancelled; give shutdown a fresh one.
		s.Shutdown(context.Background())
		return nil
	})
	return g.Wait()
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("user", "demo")

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	tokenCmd.Flags().String("user", "demo", "username the token is issued for; created when missing")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("user", tokenCmd.Flags().Lookup("user")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("tripprefs")
	viper.AutomaticEnv()

	rootCmd.AddCommand(seedCmd, tokenCmd)
}

func printGreetings(profile *profile.Profile) {
	slog.Info("tripprefs started",
		slog.String("version", profile.Version),
		slog.String("mode", profile.Mode),
		slog.String("driver", profile.Driver),
	)
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Access your tripprefs at http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Access your tripprefs at http://%s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
