// devtoken emite un bearer token local para probar el flujo de onboarding
// sin el proveedor de identidad real.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"skillswap/internal/service"
)

func main() {
	subject := flag.String("subject", "", "auth subject a firmar (default: uno generado)")
	name := flag.String("name", "Test User", "display name incluido en los claims")
	ttl := flag.Duration("ttl", time.Hour, "vigencia del token")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	sub := *subject
	if sub == "" {
		sub = "test_" + uuid.NewString()
	}

	tokenSvc := service.NewTokenService(secret, *ttl)
	token, err := tokenSvc.MintAccessToken(sub, *name)
	if err != nil {
		log.Fatalf("mint token: %v", err)
	}

	fmt.Printf("subject: %s\n", sub)
	fmt.Printf("token:   %s\n", token)
}
