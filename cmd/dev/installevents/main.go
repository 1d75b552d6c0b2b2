package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"appserver/internal/events"
	"appserver/pkg/config"
	"appserver/pkg/db"
)

func main() {
	var (
		shop  = flag.String("shop", "", "shop domain (e.g. your-store.myshopify.com)")
		limit = flag.Int("limit", 20, "max events")
	)
	flag.Parse()

	if *shop == "" {
		fmt.Fprintln(os.Stderr, "missing -shop")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	evs, err := events.ListByShop(ctx, pool, *shop, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list events: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(evs)
}
