// Package main is a development utility for generating a JWT signing secret.
// It prints a random secret plus ready-to-paste export and docker-compose
// lines so developers can configure CBO_JWT_SECRET in a local environment
// without inventing one by hand. Production deployments should provision the
// secret through their secret manager instead.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	randomBytes := make([]byte, 48)
	if _, err := rand.Read(randomBytes); err != nil {
		log.Fatal(err)
	}

	secret := base64.RawURLEncoding.EncodeToString(randomBytes)

	fmt.Println("==========================================================")
	fmt.Println("JWT Secret Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nSecret: %s\n", secret)
	fmt.Println("\nShell:")
	fmt.Printf("  export CBO_JWT_SECRET=%s\n", secret)
	fmt.Println("\ndocker-compose:")
	fmt.Printf("  CBO_JWT_SECRET: %q\n", secret)
	fmt.Println("\n==========================================================")
}
