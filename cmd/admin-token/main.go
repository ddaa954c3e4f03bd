package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"turfbook/internal/auth"
	"turfbook/internal/config"
)

// Mints a staff JWT for the admin API. Meant for operators and local
// testing; production staff tokens come from whatever issues them in your
// deployment.
func main() {
	var (
		adminID = flag.String("admin", "", "admin account identifier")
		role    = flag.String("role", "admin", "role claim: admin or superadmin")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if *adminID == "" {
		fmt.Fprintln(os.Stderr, "usage: admin-token -admin <id> [-role admin|superadmin]")
		os.Exit(2)
	}
	if cfg.Auth.AdminJWTSecret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET not set")
		os.Exit(1)
	}

	token, err := auth.IssueAdminToken(cfg.Auth.AdminJWTSecret, *adminID, *role, cfg.Auth.AdminTokenTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
