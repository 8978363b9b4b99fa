package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(1)
	}

	log.Printf("🔑 Generating bcrypt hash for agent provisioning...")

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to generate hash: %v", err)
	}

	fmt.Printf("Generated hash: %s\n", hash)
	log.Printf("✅ Successfully generated password hash")
}
