// Command hashpw reads a password without echo and prints its bcrypt hash,
// for seeding accounts directly in the database.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	pkgauth "github.com/BradenHooton/gatehouse/pkg/auth"
	"golang.org/x/term"
)

// readPassword reads one password from a terminal without echo, or one line
// when input is piped. Replaced in tests.
var readPassword = func(fd int, lines *bufio.Reader) (string, error) {
	if !term.IsTerminal(fd) {
		line, err := lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	raw, err := term.ReadPassword(fd)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cost := fs.Int("cost", pkgauth.DefaultCost, "bcrypt cost")
	skipPolicy := fs.Bool("skip-policy", false, "do not enforce the password policy")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hasher, err := pkgauth.NewHasher(*cost)
	if err != nil {
		return err
	}

	fd := int(stdin.Fd())
	lines := bufio.NewReader(stdin)

	fmt.Fprint(stderr, "Password: ")
	password, err := readPassword(fd, lines)
	fmt.Fprintln(stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(stderr, "Confirm: ")
	confirm, err := readPassword(fd, lines)
	fmt.Fprintln(stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	if !*skipPolicy {
		if err := pkgauth.ValidatePassword(password); err != nil {
			return err
		}
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, hash)
	return nil
}
