// Command dulceria runs the bakery storefront: the serve command boots
// the bot and admin API; the rest are operational helpers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/shashiranjanraj/dulceria/database/migrations"

	"github.com/shashiranjanraj/dulceria/app/controllers"
	"github.com/shashiranjanraj/dulceria/app/routes"
	"github.com/shashiranjanraj/dulceria/config"
	"github.com/shashiranjanraj/dulceria/database/seeders"
	"github.com/shashiranjanraj/dulceria/internal/server"
	"github.com/shashiranjanraj/dulceria/pkg/database"
	"github.com/shashiranjanraj/dulceria/pkg/migration"
	"github.com/shashiranjanraj/dulceria/pkg/router"
)

func main() {
	root := &cobra.Command{
		Use:   "dulceria",
		Short: "Telegram bakery storefront and admin API",
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		migrateRollbackCmd(),
		migrateStatusCmd(),
		seedCmd(),
		routeListCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, queue workers, scheduler, and HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return server.Run()
		},
	}
}

// connectDB loads config and opens the database for the operational commands.
func connectDB() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := connectDB(); err != nil {
				return err
			}
			runner := migration.New(database.DB)
			if err := runner.EnsureTable(); err != nil {
				return err
			}
			return runner.Run()
		},
	}
}

func migrateRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Roll back the last migration batch",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := connectDB(); err != nil {
				return err
			}
			runner := migration.New(database.DB)
			if err := runner.EnsureTable(); err != nil {
				return err
			}
			return runner.Rollback()
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show which migrations have run",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := connectDB(); err != nil {
				return err
			}
			runner := migration.New(database.DB)
			if err := runner.EnsureTable(); err != nil {
				return err
			}
			return runner.Status()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the catalogue and the first admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := connectDB(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return seeders.SeedAll(ctx, database.DB)
		},
	}
}

func routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "Print the registered HTTP routes",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Controllers are only constructed, never invoked, so nil
			// dependencies are fine here.
			graphqlCtl, err := controllers.NewGraphQLController(nil, nil)
			if err != nil {
				return err
			}

			r := router.New()
			routes.Register(r, routes.Controllers{
				Auth:     controllers.NewAuthController(nil),
				Products: controllers.NewProductController(nil),
				Orders:   controllers.NewOrderController(nil, nil),
				GraphQL:  graphqlCtl,
			})

			for _, route := range r.Routes() {
				fmt.Printf("%-8s %-40s %s\n", route.Method, route.Path, route.Name)
			}
			return nil
		},
	}
}
