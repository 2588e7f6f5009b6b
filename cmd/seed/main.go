package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/config"
)

func main() {
	_, _ = config.Load() // picks up .env like the API does
	var (
		apiURL  = flag.String("api", envOr("CATALOG_API_URL", "http://localhost:8080/api/products"), "product API root")
		file    = flag.String("file", "products.json", "JSON array of products to create")
		timeout = flag.Duration("timeout", catalog.DefaultTimeout, "per-request timeout")
	)
	flag.Parse()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	var products []catalog.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	client := catalog.NewClient(*apiURL, &http.Client{Timeout: *timeout})

	created, skipped, err := seed(ctx, client, products)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("[seed] created=%d skipped=%d", created, len(skipped))
	for _, id := range skipped {
		fmt.Println("exists:", id)
	}
}

// seed creates products, leaving out ids the catalog already has. It returns how many
// products were created and which ids were skipped.
func seed(ctx context.Context, client *catalog.Client, products []catalog.Product) (int, []string, error) {
	if len(products) == 0 {
		return 0, nil, nil
	}
	out, err := client.Create(ctx, products)
	if err == nil {
		return len(out), nil, nil
	}

	var se *catalog.StatusError
	if !errors.As(err, &se) || len(se.ExistingIDs) == 0 {
		return 0, nil, err
	}
	existing := make(map[string]bool, len(se.ExistingIDs))
	for _, id := range se.ExistingIDs {
		existing[id] = true
	}
	var fresh []catalog.Product
	for _, p := range products {
		if !existing[p.ID] {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		return 0, se.ExistingIDs, nil
	}
	out, err = client.Create(ctx, fresh)
	if err != nil {
		return 0, se.ExistingIDs, err
	}
	return len(out), se.ExistingIDs, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
