// Package setup collects account credentials interactively: a line prompt
// for the first run of the headless command and a terminal form for the
// default command.
package setup

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

// Credentials entered by the user.
type Credentials struct {
	Username string
	APIKey   string
}

type fdReader interface {
	io.Reader
	Fd() uintptr
}

// Prompt asks for the Steam username and API key on out, reading answers
// from in. When in is a terminal the key is read without echo.
func Prompt(in io.Reader, out io.Writer) (Credentials, error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Steam username: ")
	username, err := readLine(reader)
	if err != nil {
		return Credentials{}, errors.Wrap(err, errors.CodeIO, "unable to read username")
	}
	if username == "" {
		return Credentials{}, errors.New(errors.CodeValidation, "username must not be empty")
	}

	fmt.Fprintf(out, "%s's API key: ", username)
	var apiKey string
	if f, ok := in.(fdReader); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: fd fits in int
		raw, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // G115: fd fits in int
		fmt.Fprintln(out)
		if err != nil {
			return Credentials{}, errors.Wrap(err, errors.CodeIO, "unable to read api key")
		}
		apiKey = strings.TrimSpace(string(raw))
	} else {
		if apiKey, err = readLine(reader); err != nil {
			return Credentials{}, errors.Wrap(err, errors.CodeIO, "unable to read api key")
		}
	}
	if apiKey == "" {
		return Credentials{}, errors.New(errors.CodeValidation, "api key must not be empty")
	}

	return Credentials{Username: username, APIKey: apiKey}, nil
}

// readLine returns one trimmed line. A final line without newline is
// accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
