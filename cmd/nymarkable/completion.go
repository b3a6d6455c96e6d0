package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagFile // file with glob pattern
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string
	Short    string
	Type     flagType
	Desc     string
	FileGlob string
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool
	FilePattern string
	Args        []string // fixed argument values (completion shells)
}

// flagFileGlobs maps file flags to their completion pattern.
var flagFileGlobs = map[string]string{
	"config": "*.yaml,*.yml",
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}
		if f.Value.Type() == "bool" {
			fd.Type = flagBool
		}
		if glob, ok := flagFileGlobs[f.Name]; ok {
			fd.Type = flagFile
			fd.FileGlob = glob
		}
		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSets.
func getCommands() []commandDef {
	pipeline := func(name string) []flagDef {
		return extractFlagsFromFlagSet(buildFlagSet(name, &commandFlags{}))
	}

	return []commandDef{
		{Name: cmdLogin, Desc: "Sign in to the New York Times", Flags: pipeline(cmdLogin)},
		{Name: cmdSections, Desc: "List the edition's sections", Flags: pipeline(cmdSections)},
		{
			Name:        cmdCreateEdition,
			Desc:        "Save the edition as one PDF",
			Flags:       pipeline(cmdCreateEdition),
			TakesFiles:  true,
			FilePattern: "*.pdf",
		},
		{Name: cmdUpdateDevice, Desc: "Upload the edition to the tablet", Flags: pipeline(cmdUpdateDevice)},
		{Name: cmdDoctor, Desc: "Check setup", Flags: extractFlagsFromFlagSet(buildDoctorFlagSet(&doctorFlags{}))},
		{Name: cmdCompletion, Desc: "Generate shell completion script", Args: []string{"bash", "zsh", "fish"}},
		{Name: cmdVersion, Desc: "Show version information"},
		{Name: cmdHelp, Desc: "Show help for a command", Args: commands},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w)
	case ShellZsh:
		return generateZsh(w)
	case ShellFish:
		return generateFish(w)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: nymarkable completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(nymarkable completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(nymarkable completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    nymarkable completion fish > ~/.config/fish/completions/nymarkable.fish")
}

// flagWords lists "--long" and "-s" spellings of flags.
func flagWords(flags []flagDef) []string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

func generateBash(w io.Writer) error {
	var b strings.Builder
	cmds := getCommands()

	b.WriteString("# bash completion for nymarkable\n\n")
	b.WriteString("_nymarkable_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")

	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W \"%s\" -- \"${cur}\"))\n", strings.Join(names, " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${prev}\" in\n")
	b.WriteString("        -c|--config)\n")
	b.WriteString("            COMPREPLY=($(compgen -f -X '!*.@(yaml|yml)' -- \"${cur}\"))\n")
	b.WriteString("            return\n")
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		words := append(flagWords(c.Flags), c.Args...)
		if c.TakesFiles {
			b.WriteString("            if [[ \"${cur}\" != -* ]]; then\n")
			b.WriteString("                COMPREPLY=($(compgen -f -- \"${cur}\"))\n")
			b.WriteString("                return\n")
			b.WriteString("            fi\n")
		}
		if len(words) > 0 {
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W \"%s\" -- \"${cur}\"))\n", strings.Join(words, " "))
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _nymarkable_completions nymarkable\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// zshEscape escapes characters that end a zsh _arguments spec.
func zshEscape(s string) string {
	r := strings.NewReplacer("[", "\\[", "]", "\\]", ":", "\\:", "'", "'\\''")
	return r.Replace(s)
}

func generateZsh(w io.Writer) error {
	var b strings.Builder
	cmds := getCommands()

	b.WriteString("#compdef nymarkable\n\n")
	b.WriteString("_nymarkable() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments")
		for _, f := range c.Flags {
			spec := fmt.Sprintf("--%s[%s]", f.Long, zshEscape(f.Desc))
			if f.Short != "" {
				spec = fmt.Sprintf("{-%s,--%s}'[%s]", f.Short, f.Long, zshEscape(f.Desc))
			} else {
				spec = "'" + spec
			}
			switch f.Type {
			case flagFile:
				spec += ":file:_files -g \"*.(yaml|yml)\""
			case flagString:
				spec += ":value:"
			}
			fmt.Fprintf(&b, " \\\n                %s'", spec)
		}
		switch {
		case c.TakesFiles:
			b.WriteString(" \\\n                '1:output:_files -g \"*.pdf\"'")
		case len(c.Args) > 0:
			fmt.Fprintf(&b, " \\\n                '1:value:(%s)'", strings.Join(c.Args, " "))
		}
		b.WriteString("\n            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _nymarkable nymarkable\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func generateFish(w io.Writer) error {
	var b strings.Builder
	cmds := getCommands()

	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}

	b.WriteString("# fish completion for nymarkable\n\n")
	b.WriteString("function __fish_nymarkable_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_nymarkable_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")
	b.WriteString("complete -c nymarkable -f\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c nymarkable -n __fish_nymarkable_needs_command -a %s -d '%s'\n",
			c.Name, fishEscape(c.Desc))
	}
	b.WriteString("\n")

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_nymarkable_using_command %s'", c.Name)
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c nymarkable -n %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Type {
			case flagFile:
				line += " -r -F"
			case flagString:
				line += " -r"
			}
			line += fmt.Sprintf(" -d '%s'", fishEscape(f.Desc))
			b.WriteString(line + "\n")
		}
		if c.TakesFiles {
			fmt.Fprintf(&b, "complete -c nymarkable -n %s -F\n", cond)
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(&b, "complete -c nymarkable -n %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// fishEscape escapes single quotes for fish strings.
func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
