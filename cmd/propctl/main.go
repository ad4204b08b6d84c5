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

	"github.com/dropDatabas3/propmanager/internal/config"
	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/domain/types"
	"github.com/dropDatabas3/propmanager/internal/http/services/session"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
	"github.com/dropDatabas3/propmanager/internal/security/password"
	"github.com/dropDatabas3/propmanager/internal/store/pg"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		timeout    = 30 * time.Second
	)

	root := &cobra.Command{
		Use:           "propctl",
		Short:         "CLI operativa de propmanager (migraciones, tenants, admins, sesiones)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path a config YAML (opcional)")

	// openStore carga config y abre el pool; solo necesita database.dsn.
	openStore := func(ctx context.Context) (*pg.Store, *config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "propctl"})
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return nil, nil, errors.New("database.dsn (o DATABASE_DSN) es requerido")
		}
		st, err := pg.New(ctx, cfg.Database.DSN, pg.PoolConfig{MaxConns: 2})
		if err != nil {
			return nil, nil, err
		}
		return st, cfg, nil
	}

	// migrate
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Migrate(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("migraciones aplicadas: %d\n", n)
			return nil
		},
	}

	// tenant create
	var tName, tSlug string
	var tMaxProps, tMaxUsers int
	tenantCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Provisiona un tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tName == "" || tSlug == "" {
				return errors.New("--name y --slug son requeridos")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			tn, err := st.Tenants().Create(ctx, repository.CreateTenantInput{
				Slug: strings.ToLower(strings.TrimSpace(tSlug)), Name: tName,
				Quotas: repository.Quotas{MaxProperties: tMaxProps, MaxUsers: tMaxUsers},
			})
			if err != nil {
				if repository.IsConflict(err) {
					return fmt.Errorf("ya existe un tenant con slug %q", tSlug)
				}
				return err
			}
			fmt.Printf("tenant %s (%s)\n", tn.ID, tn.Slug)
			return nil
		},
	}
	tenantCreateCmd.Flags().StringVar(&tName, "name", "", "Nombre visible")
	tenantCreateCmd.Flags().StringVar(&tSlug, "slug", "", "Slug único (ej. acme)")
	tenantCreateCmd.Flags().IntVar(&tMaxProps, "max-properties", 0, "Cuota de inmuebles (0 = sin límite)")
	tenantCreateCmd.Flags().IntVar(&tMaxUsers, "max-users", 0, "Cuota de usuarios (0 = sin límite)")
	tenantCmd := &cobra.Command{Use: "tenant", Short: "Operaciones sobre tenants"}
	tenantCmd.AddCommand(tenantCreateCmd)

	// admin create
	var aTenant, aEmail, aFirst, aLast, aPassword string
	adminCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Crea el primer admin de un tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if aPassword == "" {
				aPassword = os.Getenv("PROPCTL_ADMIN_PASSWORD")
			}
			if aTenant == "" || aEmail == "" || aFirst == "" || aLast == "" || aPassword == "" {
				return errors.New("--tenant, --email, --first-name, --last-name y password (--password o PROPCTL_ADMIN_PASSWORD) son requeridos")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			tn, err := st.Tenants().GetBySlug(ctx, aTenant)
			if repository.IsNotFound(err) {
				tn, err = st.Tenants().GetByID(ctx, aTenant)
			}
			if err != nil {
				return fmt.Errorf("tenant %q: %w", aTenant, err)
			}

			policy := password.DefaultPolicy()
			if policy.Blacklist, err = password.LoadBlacklist(cfg.Password.BlacklistPath); err != nil {
				return err
			}
			if err := policy.Check(aPassword); err != nil {
				return err
			}
			hasher := password.NewHasher(password.Params{
				Memory: cfg.Password.MemoryKiB, Time: cfg.Password.Time, Parallelism: cfg.Password.Parallelism,
			})
			digest, err := hasher.Hash(aPassword)
			if err != nil {
				return err
			}

			in := repository.CreateIdentityInput{
				Email: strings.ToLower(strings.TrimSpace(aEmail)), PasswordHash: digest,
				FirstName: aFirst, LastName: aLast, Role: types.RoleAdmin,
			}
			in.SetTenantID(tn.ID)
			idn, err := st.Identities().Create(ctx, in)
			if err != nil {
				if repository.IsConflict(err) {
					return fmt.Errorf("el email %s ya está registrado", aEmail)
				}
				return err
			}
			fmt.Printf("admin %s creado en tenant %s\n", idn.ID, tn.Slug)
			return nil
		},
	}
	adminCreateCmd.Flags().StringVar(&aTenant, "tenant", "", "Slug o ID del tenant")
	adminCreateCmd.Flags().StringVar(&aEmail, "email", "", "Email del admin")
	adminCreateCmd.Flags().StringVar(&aFirst, "first-name", "", "Nombre")
	adminCreateCmd.Flags().StringVar(&aLast, "last-name", "", "Apellido")
	adminCreateCmd.Flags().StringVar(&aPassword, "password", "", "Password (preferir PROPCTL_ADMIN_PASSWORD)")
	adminCmd := &cobra.Command{Use: "admin", Short: "Operaciones sobre admins"}
	adminCmd.AddCommand(adminCreateCmd)

	// sessions purge
	sessionsPurgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Borra sesiones de refresh vencidas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, _, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := session.NewRegistry(st.Sessions()).PurgeExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("sesiones borradas: %d\n", n)
			return nil
		},
	}
	sessionsCmd := &cobra.Command{Use: "sessions", Short: "Housekeeping de sesiones"}
	sessionsCmd.AddCommand(sessionsPurgeCmd)

	root.AddCommand(migrateCmd, tenantCmd, adminCmd, sessionsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
