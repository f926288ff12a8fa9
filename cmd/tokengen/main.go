// Command tokengen mints bearer tokens for rfqdesk. It signs with the same
// SESSION_SECRET and SESSION_ISSUER the server loads.
//
//	tokengen -sub u42 -role vendor -org "Blue Water Logistics" -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aristath/rfqdesk/internal/config"
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/session"
	"github.com/aristath/rfqdesk/pkg/logger"
)

func main() {
	sub := flag.String("sub", "", "principal id (required)")
	role := flag.String("role", "", "logistics, vendor or admin (required)")
	org := flag.String("org", "", "vendor organization (required for vendors)")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	log := logger.New(logger.Config{Level: "warn", Pretty: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	p := domain.Principal{ID: *sub, Role: domain.Role(*role), Organization: *org}
	token, err := session.NewIssuer(cfg.SessionSecret, cfg.SessionIssuer).Issue(p, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println(token)
}
