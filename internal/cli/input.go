package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// password reads one secret, from stdin when --password-stdin is set and
// from the terminal without echo otherwise.
func (c *cli) password(prompt string) (string, error) {
	if c.passwordStdin {
		line, err := c.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if _, err := fmt.Fprint(c.errOut, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.errOut)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// newPassword reads a password and its confirmation. On stdin a missing
// second line reuses the first.
func (c *cli) newPassword() (string, string, error) {
	pw, err := c.password("New password: ")
	if err != nil {
		return "", "", err
	}

	confirmation, err := c.password("Confirm password: ")
	if err != nil {
		if c.passwordStdin {
			return pw, pw, nil
		}
		return "", "", err
	}
	return pw, confirmation, nil
}
