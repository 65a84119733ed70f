package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passwordOrPrompt returns flagValue, or asks for a password on stdin when
// the flag was not given.
func (a *app) passwordOrPrompt(flagValue string) (string, error) {
	password := flagValue
	if password == "" {
		fmt.Fprint(a.stderr, "Password: ")
		var err error
		password, err = readPassword(a.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(a.stderr)
	}
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
