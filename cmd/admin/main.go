// Command admin runs maintenance tasks against the recipe database.
//
// Usage:
//
//	admin createsuperuser [-email address] [-d dsn] [-c config.json]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/recipeapi/internal/admin"
	"github.com/dmitrijs2005/recipeapi/internal/flagx"
	"github.com/dmitrijs2005/recipeapi/internal/server"
	"github.com/dmitrijs2005/recipeapi/internal/server/config"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recipeapi/internal/server/services"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "createsuperuser" {
		fmt.Fprintln(os.Stderr, "usage: admin createsuperuser [-email address]")
		os.Exit(2)
	}

	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	email := fs.String("email", "", "superuser email")
	if err := fs.Parse(flagx.FilterArgs(os.Args[2:], []string{"-email"})); err != nil {
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	m := repomanager.NewPostgresRepositoryManager()
	db, err := server.OpenDB(ctx, cfg.DatabaseDSN, m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	cmd := admin.NewCommand(services.NewUserService(db, m, cfg, nil), os.Stdin, os.Stdout)
	if _, err := cmd.CreateSuperuser(ctx, *email); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		db.Close()
		os.Exit(1)
	}
}
