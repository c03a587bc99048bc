package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"interprep/pkg/api"
	"interprep/pkg/auth"
)

const usage = `commands:
  login <username> <password>
  register <username> <email> <password>
  logout
  refresh
  me
  get <path>
  state
  quit`

var errQuit = errors.New("quit")

// Shell is a line-oriented client driving one session.
type Shell struct {
	Manager *auth.Manager
	Client  *api.Client
	Logger  *slog.Logger
}

func New(manager *auth.Manager, client *api.Client, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Shell{Manager: manager, Client: client, Logger: logger}
}

// Run reads commands from in until EOF, quit or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprintln(out, "type help for commands")
	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := s.Exec(ctx, line, out); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string, out io.Writer) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	s.Logger.Debug("console command", "name", args[0])

	switch cmd, args := args[0], args[1:]; cmd {
	case "help":
		fmt.Fprintln(out, usage)
		return nil
	case "quit", "exit":
		return errQuit
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <username> <password>")
		}
		resp, err := s.Manager.Login(ctx, args[0], args[1])
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(out, message(resp, "Login successful"))
		return nil
	case "register":
		if len(args) != 3 {
			return errors.New("usage: register <username> <email> <password>")
		}
		resp, err := s.Manager.Register(ctx, args[0], args[1], args[2])
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(out, message(resp, "Registration successful"))
		return nil
	case "logout":
		if err := s.Manager.SignOut(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil
	case "refresh":
		if _, err := s.Manager.Refresh(ctx); err != nil {
			return describe(err)
		}
		fmt.Fprintln(out, "access token refreshed")
		return nil
	case "me":
		p, err := s.Client.Me(ctx)
		if err != nil {
			return describe(err)
		}
		return printJSON(out, p)
	case "get":
		if len(args) != 1 {
			return errors.New("usage: get <path>")
		}
		var body json.RawMessage
		if err := s.Client.GetJSON(ctx, args[0], &body); err != nil {
			return describe(err)
		}
		return printJSON(out, body)
	case "state":
		return printState(out, s.Manager.State())
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func message(resp *auth.AuthResponse, fallback string) string {
	if resp.Message != "" {
		return resp.Message
	}
	return fallback
}

func describe(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Details != "" {
		return fmt.Errorf("%s: %s", apiErr.Message, apiErr.Details)
	}
	return err
}

func printState(out io.Writer, st auth.State) error {
	switch {
	case st.IsAuthenticated && st.CurrentUser != nil:
		name := st.CurrentUser.Username
		if name == "" {
			name = "?"
		}
		fmt.Fprintf(out, "authenticated as %s (id %s)\n", name, st.CurrentUser.ID)
	default:
		fmt.Fprintln(out, "not authenticated")
	}
	if st.LastError != nil {
		fmt.Fprintf(out, "last error: %s: %s\n", st.LastError.Message, st.LastError.Details)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
