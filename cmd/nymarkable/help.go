package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nymarkable <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  login            Sign in to the New York Times in a browser window")
	fmt.Fprintln(w, "  sections         List the sections of today's edition")
	fmt.Fprintln(w, "  create-edition   Save today's edition as one PDF")
	fmt.Fprintln(w, "  update-device    Build the edition and upload it to the tablet")
	fmt.Fprintln(w, "  doctor           Check browser, profile and device setup")
	fmt.Fprintln(w, "  completion       Generate shell completion script")
	fmt.Fprintln(w, "  version          Show version information")
	fmt.Fprintln(w, "  help             Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'nymarkable help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "  -c, --config <path>       Config file path")
	fmt.Fprintln(w, "      --headful             Show the browser window")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printHarvestFlags(w io.Writer) {
	fmt.Fprintln(w, "      --section <name>      Only harvest this section (repeatable)")
	fmt.Fprintln(w, "                            Names as printed by 'nymarkable sections'")
	fmt.Fprintln(w, "      --cover               Prepend a cover page listing the articles")
}

// printCommandUsage prints usage for a browser command.
func printCommandUsage(w io.Writer, command string) {
	switch command {
	case cmdLogin:
		fmt.Fprintln(w, "Usage: nymarkable login [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open a browser window on the New York Times app and wait until you")
		fmt.Fprintln(w, "sign in. The session is kept in the browser profile for later runs.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		printCommonFlags(w)
	case cmdSections:
		fmt.Fprintln(w, "Usage: nymarkable sections [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "List the sections of today's edition, one per line.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		printCommonFlags(w)
	case cmdCreateEdition:
		fmt.Fprintln(w, "Usage: nymarkable create-edition <output.pdf> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Print every article of today's edition and merge them into one PDF")
		fmt.Fprintln(w, "with a section and headline outline.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		printHarvestFlags(w)
		printCommonFlags(w)
	case cmdUpdateDevice:
		fmt.Fprintln(w, "Usage: nymarkable update-device [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Build today's edition and upload it through the tablet's USB web")
		fmt.Fprintln(w, "interface.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Device:")
		fmt.Fprintln(w, "      --device-ip <addr>    Tablet address (default 10.11.99.1)")
		fmt.Fprintln(w, "      --filename <name>     File name on the tablet (default nytimes.pdf)")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		printHarvestFlags(w)
		printCommonFlags(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  NYMARKABLE_HOME, NYMARKABLE_CONFIG, NYMARKABLE_DEVICE_IP, NYMARKABLE_FILENAME,")
	fmt.Fprintln(w, "  NYMARKABLE_SECTIONS, NYMARKABLE_HEADFUL, NYMARKABLE_LOGIN_ATTEMPTS")
	fmt.Fprintln(w, "  NYMARKABLE_SECTIONS is comma separated; write a comma inside a title as \\,")
	fmt.Fprintln(w, `  (e.g. NYMARKABLE_SECTIONS='World,Arts\, Books').`)
	fmt.Fprintln(w, "  Also read from <home>/.env. ROD_BROWSER_BIN and ROD_NO_SANDBOX select the browser.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdLogin, cmdSections, cmdCreateEdition, cmdUpdateDevice:
		printCommandUsage(env.Stdout, args[0])
	case cmdDoctor:
		fmt.Fprintln(env.Stdout, "Usage: nymarkable doctor [flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check the browser, profile directory, config and tablet connection.")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Flags:")
		fmt.Fprintln(env.Stdout, "  -c, --config <path>       Config file path")
		fmt.Fprintln(env.Stdout, "      --json                Print results as JSON")
		fmt.Fprintln(env.Stdout, "      --no-device           Skip the tablet connection check")
	case cmdCompletion:
		printCompletionUsage(env.Stdout)
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: nymarkable version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: nymarkable help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
