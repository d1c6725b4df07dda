// File: cmd/seed/main.go
// Operator tool for minting and activating redeem codes.
//
//	seed -count 20                      generate 20 inert codes
//	seed -count 20 -expires 720h        generate codes valid for 30 days
//	seed -activate CODE -page p1        bind a code to a page
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"page-auth-service/internal/config"
	pg "page-auth-service/internal/infra/db/postgres"
	"page-auth-service/internal/infra/logging"
	"page-auth-service/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	count := flag.Int("count", 0, "number of codes to generate")
	expires := flag.Duration("expires", 0, "validity window for generated codes (0 = no expiry)")
	activate := flag.String("activate", "", "code to bind to a page")
	pageID := flag.String("page", "", "page id to bind with -activate")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	codeUC := usecase.NewCodeAdminUseCase(pg.NewRedeemCodeRepo(pool), logger)

	switch {
	case *activate != "":
		if *pageID == "" {
			log.Fatal("-activate requires -page")
		}
		if err := codeUC.ActivateCode(ctx, *activate, *pageID); err != nil {
			log.Fatalf("activate %q: %v", *activate, err)
		}
		fmt.Printf("activated: %s -> page %s\n", *activate, *pageID)

	case *count > 0:
		var expiresAt *time.Time
		if *expires > 0 {
			t := time.Now().Add(*expires)
			expiresAt = &t
		}
		codes, err := codeUC.GenerateCodes(ctx, *count, expiresAt)
		if err != nil {
			log.Fatalf("generate: %v", err)
		}
		for _, c := range codes {
			fmt.Println(c)
		}
		fmt.Printf("generated %d codes (inert until activated)\n", len(codes))

	default:
		flag.Usage()
	}
}
