package main

import (
	"fmt"
	"io"
	"os"

	"rolegate.backend/pkg/crypto"
)

// hashpw prints the bcrypt hash for an operator password, for use as
// ADMIN_PASSWORD_HASH.
func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("usage: hashpw <password>")
	}

	hash, err := crypto.HashPassword(args[0])
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Fprintln(out, hash)
	return nil
}
