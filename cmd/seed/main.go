// Command seed creates account users. The service itself never creates
// users; they are provisioned externally and only referenced by the core.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/solademi/account-ledger/internal/config"
	"github.com/solademi/account-ledger/internal/domain"
	"github.com/solademi/account-ledger/internal/repository"
)

func main() {
	name := flag.String("name", "", "display name of the user to create")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -name <display name>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		ConnMaxLifetimeS: 60,
		ConnMaxIdleTimeS: 30,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	user := &domain.AccountUser{
		ID:        uuid.New(),
		Name:      *name,
		CreatedAt: time.Now().UTC(),
	}

	if err := repository.NewUserRepository(db).Create(ctx, user); err != nil {
		slog.Error("failed to create user", "error", err)
		os.Exit(1)
	}

	fmt.Println(user.ID)
}
