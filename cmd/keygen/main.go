// Command keygen generates the RSA key pair the token engine signs with.
// The private key is written PKCS#8, optionally encrypted with a passphrase.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/banglalekha/go-services/internal/tokens"
	"github.com/banglalekha/go-services/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	var (
		dir        = flag.String("dir", "secretKeys", "output directory for the PEM files")
		bits       = flag.Int("bits", 2048, "RSA key size")
		passphrase = flag.String("passphrase", os.Getenv("AUTH_KEY_PASSPHRASE"), "passphrase to encrypt the private key (empty writes it unencrypted)")
	)
	flag.Parse()

	keys, err := tokens.GenerateKeyPair(*bits)
	if err != nil {
		logger.Fatalf("failed to generate key pair: %v", err)
	}

	privPEM, err := keys.EncodePrivatePEM(*passphrase)
	if err != nil {
		logger.Fatalf("failed to encode private key: %v", err)
	}
	pubPEM, err := keys.EncodePublicPEM()
	if err != nil {
		logger.Fatalf("failed to encode public key: %v", err)
	}

	if err := os.MkdirAll(*dir, 0o700); err != nil {
		logger.Fatalf("failed to create %s: %v", *dir, err)
	}
	privPath := filepath.Join(*dir, "tokenPrivate.pem")
	pubPath := filepath.Join(*dir, "tokenPublic.pem")
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		logger.Fatalf("failed to write %s: %v", privPath, err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		logger.Fatalf("failed to write %s: %v", pubPath, err)
	}

	if *passphrase == "" {
		logger.Warnf("private key written unencrypted; set a passphrase for production keys")
	}
	logger.Infof("wrote %s and %s (%d bits)", privPath, pubPath, *bits)
}
