package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// harvestFlags holds flags for commands that drive the browser.
type harvestFlags struct {
	headful  bool
	sections []string
	cover    bool
}

// deviceFlags holds update-device flags. Empty values keep the config.
type deviceFlags struct {
	address  string
	filename string
}

// commandFlags holds every flag a command may register.
type commandFlags struct {
	common  commonFlags
	harvest harvestFlags
	device  deviceFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addBrowserFlags adds the switch shared by every browser command.
func addBrowserFlags(fs *flag.FlagSet, f *harvestFlags) {
	fs.BoolVar(&f.headful, "headful", false, "show the browser window")
}

// addHarvestFlags adds section filtering and cover flags.
func addHarvestFlags(fs *flag.FlagSet, f *harvestFlags) {
	fs.StringArrayVar(&f.sections, "section", nil, "only harvest this section (repeatable)")
	fs.BoolVar(&f.cover, "cover", false, "prepend a cover page")
}

// addDeviceFlags adds the tablet address flags.
func addDeviceFlags(fs *flag.FlagSet, f *deviceFlags) {
	fs.StringVar(&f.address, "device-ip", "", "tablet address (default 10.11.99.1)")
	fs.StringVar(&f.filename, "filename", "", "file name on the tablet (default nytimes.pdf)")
}

// buildFlagSet registers the flags of a command. It is shared by argument
// parsing and shell completion so both see the same flags.
func buildFlagSet(command string, f *commandFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	addCommonFlags(fs, &f.common)
	switch command {
	case cmdLogin, cmdSections:
		addBrowserFlags(fs, &f.harvest)
	case cmdCreateEdition:
		addBrowserFlags(fs, &f.harvest)
		addHarvestFlags(fs, &f.harvest)
	case cmdUpdateDevice:
		addBrowserFlags(fs, &f.harvest)
		addHarvestFlags(fs, &f.harvest)
		addDeviceFlags(fs, &f.device)
	}
	return fs
}

// parseCommandFlags parses the flags of a pipeline command.
// Returns the positional arguments left after flags.
func parseCommandFlags(command string, args []string) (*commandFlags, []string, error) {
	f := &commandFlags{}
	fs := buildFlagSet(command, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return f, fs.Args(), nil
}
