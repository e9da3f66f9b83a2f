package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bookingdesk/pkg/config"
	"bookingdesk/pkg/session"
)

// Mints a session token for local testing against the API:
//
//	go run ./cmd/dev/token -user u-1 -role vendor -vendor-profile vp-9
func main() {
	var (
		userID  = flag.String("user", "", "user id (token subject)")
		role    = flag.String("role", "client", "client or vendor")
		profile = flag.String("vendor-profile", "", "vendor profile id (vendor role only)")
		ttl     = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}
	r, err := session.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.Session.Secret == "" {
		fmt.Fprintln(os.Stderr, "missing SESSION_SECRET (env or .env)")
		os.Exit(2)
	}

	now := time.Now()
	tok, err := session.Sign(session.Session{
		UserID:          *userID,
		Role:            r,
		VendorProfileID: *profile,
		ExpiresAt:       now.Add(*ttl),
	}, cfg.Session.Secret, cfg.Session.Audience, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
