// Command hash-generator prints bcrypt hashes for the passwords given as
// arguments, using the same hasher as account registration. It is meant for
// seeding account records by hand.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/phrazzld/clarity-api/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt work factor")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator [-cost n] password...")
		os.Exit(2)
	}

	hasher, err := auth.NewBcryptHasher(*cost)
	if err != nil {
		log.Fatalf("hash-generator: %v", err)
	}
	if err := writeHashes(os.Stdout, hasher, flag.Args()); err != nil {
		log.Fatalf("hash-generator: %v", err)
	}
}

// writeHashes writes one "password<TAB>hash" line per password.
func writeHashes(w io.Writer, hasher auth.PasswordHasher, passwords []string) error {
	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("failed to hash %q: %w", password, err)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", password, hash); err != nil {
			return err
		}
	}
	return nil
}
