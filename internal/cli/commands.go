package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	CommandServe         = "serve"
	CommandSweep         = "sweep"
	CommandSeed          = "seed"
	CommandResetPassword = "reset-password"
)

// Invocation is a parsed command line. Days is zero when --days was not
// given and the configured retention applies.
type Invocation struct {
	Command string
	Days    int
	Email   string
}

// Parse reads os.Args[1:]. No arguments means serve.
func Parse(args []string, stderr io.Writer) (Invocation, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return Invocation{Command: CommandServe}, nil
	}

	invocation := Invocation{Command: args[0]}
	flags := flag.NewFlagSet("tandem "+invocation.Command, flag.ContinueOnError)
	flags.SetOutput(stderr)

	switch invocation.Command {
	case CommandServe, CommandSeed:
	case CommandSweep:
		flags.IntVar(&invocation.Days, "days", 0, "delete read notifications older than this many days")
	case CommandResetPassword:
		flags.StringVar(&invocation.Email, "email", "", "account email")
	default:
		return Invocation{}, fmt.Errorf("unknown command %q (want serve, sweep, seed or reset-password)", invocation.Command)
	}

	if err := flags.Parse(args[1:]); err != nil {
		return Invocation{}, err
	}
	if flags.NArg() > 0 {
		return Invocation{}, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if invocation.Command == CommandSweep && invocation.Days < 0 {
		return Invocation{}, fmt.Errorf("--days must not be negative")
	}
	if invocation.Command == CommandResetPassword && strings.TrimSpace(invocation.Email) == "" {
		return Invocation{}, fmt.Errorf("--email is required")
	}
	return invocation, nil
}
