// monarchctl administra proyectos y el schema sin pasar por la API HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hypeframe/monarch/pkg/config"
	"github.com/hypeframe/monarch/pkg/dbx"
	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/iam/project/projectinfra"
	"github.com/hypeframe/monarch/pkg/iam/project/projectsrv"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, postgresBackend); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// backend abre lo que cada comando necesita. close libera la conexión.
type backend struct {
	projects *projectsrv.ProjectService
	migrate  func(ctx context.Context) error
	close    func()
}

type backendFactory func(ctx context.Context, cfg *config.Config) (*backend, error)

func postgresBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return nil, fmt.Errorf("monarchctl requires STORE_DRIVER=%s", config.StoreDriverPostgres)
	}
	db, err := dbx.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			closeDB(db)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	var cache redis.UniversalClient
	if rdb != nil {
		cache = rdb
	}
	return &backend{
		projects: projectService(cfg, projectinfra.NewPostgresProjectRepository(db), cache),
		migrate:  func(ctx context.Context) error { return dbx.Migrate(ctx, db) },
		close: func() {
			if rdb != nil {
				if err := rdb.Close(); err != nil {
					logx.Warnf("close redis: %v", err)
				}
			}
			closeDB(db)
		},
	}, nil
}

// projectService arma el repo igual que el server: con Redis las escrituras
// pasan por el cache, así rotate-key y disable invalidan la key cacheada.
func projectService(cfg *config.Config, repo project.Repository, cache redis.UniversalClient) *projectsrv.ProjectService {
	if cache != nil {
		repo = projectinfra.NewCachedProjectRepository(repo, cache, cfg.Auth.APIKey.CacheTTL)
	}
	return projectsrv.NewProjectService(repo, cfg.Auth.APIKey.Prefix)
}

func closeDB(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logx.Warnf("close database: %v", err)
	}
}

var errUsage = errors.New("usage: monarchctl <migrate|project> [flags]")

func run(ctx context.Context, args []string, out io.Writer, open backendFactory) error {
	if len(args) == 0 {
		printHelp(out)
		return errUsage
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp(out)
		return nil
	case "migrate", "project":
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	b, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	if args[0] == "migrate" {
		if err := b.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations applied")
		return nil
	}
	return runProject(ctx, args[1:], out, b.projects)
}

func runProject(ctx context.Context, args []string, out io.Writer, projects *projectsrv.ProjectService) error {
	if len(args) == 0 {
		return errors.New("usage: monarchctl project <create|rotate-key|disable|list> [flags]")
	}

	var id, name string
	flagSet := pflag.NewFlagSet("project "+args[0], pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&id, "id", "", "project id")
	flagSet.StringVar(&name, "name", "", "display name (create only)")
	if err := flagSet.Parse(args[1:]); err != nil {
		return err
	}

	needID := args[0] != "list"
	if needID && id == "" {
		return errors.New("--id is required")
	}
	pid := kernel.ProjectID(id)

	switch args[0] {
	case "create":
		if name == "" {
			name = id
		}
		p, key, err := projects.Create(ctx, pid, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "project %s created\napi key: %s\n", p.ID, key)

	case "rotate-key":
		p, key, err := projects.RotateKey(ctx, pid)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "project %s key rotated\napi key: %s\n", p.ID, key)

	case "disable":
		if err := projects.Disable(ctx, pid); err != nil {
			return err
		}
		fmt.Fprintf(out, "project %s disabled\n", pid)

	case "list":
		list, err := projects.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tACTIVE\tCREATED")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.ID, p.Name, p.IsActive, p.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown project command %q", args[0])
	}
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `monarchctl administers a monarch deployment.

Usage:
  monarchctl migrate
  monarchctl project create --id <id> [--name <name>]
  monarchctl project rotate-key --id <id>
  monarchctl project disable --id <id>
  monarchctl project list

Database settings come from the same DB_* variables the server reads.
The API key is printed once; only its hash is stored.
`)
}
