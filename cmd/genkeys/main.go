package main

import (
	"crypto/rand"
	"crypto/rsa"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ainside/licensing-api/internal/signing"
)

func main() {
	bits := flag.Int("bits", 2048, "RSA key size in bits")
	privateOut := flag.String("private", "license_signing_key.pem", "Output path for the private key (PKCS#8 PEM)")
	publicOut := flag.String("public", "license_verify_key.pem", "Output path for the public key (PKIX PEM)")
	flag.Parse()

	key, err := rsa.GenerateKey(rand.Reader, *bits)
	if err != nil {
		log.Fatalf("Failed to generate RSA key: %v", err)
	}

	privatePEM, err := signing.EncodePrivateKeyPEM(key)
	if err != nil {
		log.Fatalf("Failed to encode private key: %v", err)
	}

	publicPEM, err := signing.EncodePublicKeyPEM(&key.PublicKey)
	if err != nil {
		log.Fatalf("Failed to encode public key: %v", err)
	}

	if err := os.WriteFile(*privateOut, privatePEM, 0600); err != nil {
		log.Fatalf("Failed to write private key file: %v", err)
	}
	if err := os.WriteFile(*publicOut, publicPEM, 0644); err != nil {
		log.Fatalf("Failed to write public key file: %v", err)
	}

	fmt.Printf("Private key written to %s (keep this on the server only)\n", *privateOut)
	fmt.Printf("Public key written to %s (pin this in the desktop client)\n", *publicOut)
}
