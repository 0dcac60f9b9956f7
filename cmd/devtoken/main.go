package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dojoquest-backend/internal/app"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/services"
)

// devtoken prints a signed bearer token for local testing.
func main() {
	subject := flag.String("sub", "", "student or coach id (random when empty)")
	role := flag.String("role", "student", "student, coach or admin")
	club := flag.String("club", "", "club id")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Nop()

	sub := uuid.New()
	if *subject != "" {
		if sub, err = uuid.Parse(*subject); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -sub: %v\n", err)
			os.Exit(2)
		}
	}
	clubID := uuid.Nil
	if *club != "" {
		if clubID, err = uuid.Parse(*club); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -club: %v\n", err)
			os.Exit(2)
		}
	}

	auth, err := services.NewAuthService(log, cfg.JWTSecret(log), cfg.JWTIssuer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init auth: %v\n", err)
		os.Exit(1)
	}
	token, err := auth.MintToken(sub, *role, clubID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
