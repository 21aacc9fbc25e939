package main // Operator tool: hash a tenant secret for seeding the apps table

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/seatgrid/booking-backend/internal/utils"
)

func main() {
	secret := flag.String("secret", "", "plaintext tenant secret to hash")
	cost := flag.Int("cost", defaultCost(), "bcrypt cost (defaults to TENANT_SECRET_BCRYPT_COST)")
	flag.Parse()

	if *secret == "" {
		log.Fatal("usage: hashsecret -secret <plaintext> [-cost N]")
	}

	hash, err := utils.HashSecret(*secret, *cost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	fmt.Println(hash)
}

func defaultCost() int {
	_ = godotenv.Load()
	if v := os.Getenv("TENANT_SECRET_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 10
}
