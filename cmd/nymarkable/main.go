package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-nymarkable"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Command names.
const (
	cmdLogin         = "login"
	cmdSections      = "sections"
	cmdCreateEdition = "create-edition"
	cmdUpdateDevice  = "update-device"
	cmdDoctor        = "doctor"
	cmdCompletion    = "completion"
	cmdVersion       = "version"
	cmdHelp          = "help"
)

// ErrUsage is returned for malformed command lines.
var ErrUsage = errors.New("invalid usage")

// commands lists every command in help order.
var commands = []string{
	cmdLogin, cmdSections, cmdCreateEdition, cmdUpdateDevice,
	cmdDoctor, cmdCompletion, cmdVersion, cmdHelp,
}

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// isCommand reports whether name is a known command.
func isCommand(name string) bool {
	for _, c := range commands {
		if c == name {
			return true
		}
	}
	return false
}

// runMain dispatches args[1] and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	name, rest := args[1], args[2:]
	switch name {
	case cmdVersion, "--version":
		fmt.Fprintf(env.Stdout, "nymarkable %s\n", Version)
		return ExitSuccess
	case cmdHelp, "-h", "--help":
		return runHelp(rest, env)
	case cmdDoctor:
		return runDoctorCmd(rest, env)
	case cmdCompletion:
		return reportError(env, runCompletion(rest, env))
	}

	if !isCommand(name) {
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", name)
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	err := runPipelineCommand(ctx, name, rest, env)
	if errors.Is(err, flag.ErrHelp) {
		printCommandUsage(env.Stdout, name)
		return ExitSuccess
	}
	return reportError(env, err)
}

// runPipelineCommand parses flags, loads configuration and runs one of
// the browser commands.
func runPipelineCommand(ctx context.Context, name string, args []string, env *Environment) error {
	flags, positional, err := parseCommandFlags(name, args)
	if err != nil {
		return err
	}

	switch name {
	case cmdCreateEdition:
		if len(positional) != 1 {
			return fmt.Errorf("%w: create-edition takes exactly one output file", ErrUsage)
		}
	default:
		if len(positional) != 0 {
			return fmt.Errorf("%w: %s takes no arguments, got %q", ErrUsage, name, positional)
		}
	}

	rc, err := newRunContext(flags, env)
	if err != nil {
		return err
	}
	defer rc.close()

	switch name {
	case cmdLogin:
		return runLogin(ctx, rc)
	case cmdSections:
		return runSections(ctx, rc)
	case cmdCreateEdition:
		return runCreateEdition(ctx, rc, positional[0])
	default:
		return runUpdateDevice(ctx, rc)
	}
}

// reportError prints err and maps it to an exit code. A browser window
// closed by the user is a normal way to stop and exits 0.
func reportError(env *Environment, err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, nymarkable.ErrSessionClosed) {
		fmt.Fprintln(env.Stderr, "Browser window closed, stopping.")
		return ExitSuccess
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(env.Stderr, "Interrupted.")
		return ExitGeneral
	}
	fmt.Fprintf(env.Stderr, "error: %v\n", err)
	return exitCodeFor(err)
}
