package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-nymarkable/internal/config"
	"github.com/alnah/go-nymarkable/internal/fileutil"
	"github.com/alnah/go-nymarkable/internal/hints"
)

// deviceProbeTimeout bounds the tablet reachability check.
const deviceProbeTimeout = 3 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Browser  browserInfo `json:"browser"`
	Env      envInfo     `json:"environment"`
	Config   configInfo  `json:"config"`
	Profile  profileInfo `json:"profile"`
	Device   deviceInfo  `json:"device"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// browserInfo holds Chrome/Chromium detection results.
type browserInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	Snap          bool   `json:"snap"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// configInfo describes the configuration that would be used.
type configInfo struct {
	Path  string `json:"path,omitempty"` // empty = built-in defaults
	Valid bool   `json:"valid"`
}

// profileInfo holds browser profile checks.
type profileInfo struct {
	Path     string `json:"path,omitempty"`
	Writable bool   `json:"writable"`
}

// deviceInfo holds the tablet reachability check.
type deviceInfo struct {
	Address   string `json:"address"`
	Checked   bool   `json:"checked"`
	Reachable bool   `json:"reachable"`
}

// doctorFlags holds doctor command flags.
type doctorFlags struct {
	config   string
	json     bool
	noDevice bool
}

func buildDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(cmdDoctor, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	fs.BoolVar(&f.noDevice, "no-device", false, "skip the tablet connection check")
	return fs
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	f := &doctorFlags{}
	if err := buildDoctorFlagSet(f).Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return runHelp([]string{cmdDoctor}, env)
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(f, env.Stderr)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(f *doctorFlags, stderr io.Writer) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	cfg := checkConfig(result, f.config, stderr)
	checkBrowser(result, cfg)
	checkEnvironment(result)
	checkProfile(result, cfg)
	if !f.noDevice {
		checkDevice(result, cfg)
	} else {
		result.Device.Address = cfg.Device.Address
	}

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads the configuration. On failure the defaults are used
// for the remaining checks.
func checkConfig(result *doctorResult, flagPath string, stderr io.Writer) *config.Config {
	cfg, path, err := loadConfig(flagPath, stderr)
	result.Config.Path = path
	if err != nil {
		result.Errors = append(result.Errors, "Config: "+firstLine(err.Error()))
		return config.DefaultConfig()
	}
	result.Config.Valid = true
	if err := cfg.Validate(); err != nil {
		result.Config.Valid = false
		result.Errors = append(result.Errors, "Config: "+err.Error())
		return config.DefaultConfig()
	}
	return cfg
}

// checkBrowser detects the browser binary the pipeline would launch.
func checkBrowser(result *doctorResult, cfg *config.Config) {
	bin := cfg.Browser.Bin
	if bin == "" {
		bin = result.Env.BrowserBin
	}

	if bin == "" {
		var found bool
		bin, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(bin); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", bin))
		return
	}

	result.Browser.Found = true
	result.Browser.Path = bin

	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- browser path is user configuration
	if err == nil {
		result.Browser.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Browser.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container, snap and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()
	result.Env.Snap = hints.IsSnap()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("NYMARKABLE_CONTAINER") == "1" {
		return true, "NYMARKABLE_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkProfile verifies the browser profile directory can be written,
// creating it when missing as a run would.
func checkProfile(result *doctorResult, cfg *config.Config) {
	dir, err := cfg.ProfileDir()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Profile directory: %v", err))
		return
	}
	result.Profile.Path = dir

	if err := os.MkdirAll(dir, 0o700); err == nil {
		err = fileutil.DirWritable(dir)
	}
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Profile directory not writable: %s%s", dir, hints.ForProfileDir(dir)))
		return
	}
	result.Profile.Writable = true
}

// checkDevice sends one GET to the tablet's web interface. An absent
// tablet is a warning: only update-device needs it.
func checkDevice(result *doctorResult, cfg *config.Config) {
	result.Device.Address = cfg.Device.Address
	result.Device.Checked = true

	ctx, cancel := context.WithTimeout(context.Background(), deviceProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Device.BaseURL()+"/", nil)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Device address %q: %v", cfg.Device.Address, err))
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Tablet not reachable at %s (only needed for update-device)", cfg.Device.Address))
		return
	}
	_ = resp.Body.Close()
	result.Device.Reachable = true
}

// firstLine drops appended hints from an error message.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "nymarkable doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Browser.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Browser.Path)
		if r.Browser.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Browser.Version)
		}
		if r.Browser.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.Snap {
		fmt.Fprintln(w, "  [OK] Snap: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration")
	switch {
	case !r.Config.Valid:
		fmt.Fprintln(w, "  [ERROR] Invalid")
	case r.Config.Path == "":
		fmt.Fprintln(w, "  [OK] Using defaults")
	default:
		fmt.Fprintf(w, "  [OK] Loaded %s\n", r.Config.Path)
	}
	if r.Profile.Writable {
		fmt.Fprintf(w, "  [OK] Profile: %s\n", r.Profile.Path)
	} else {
		fmt.Fprintln(w, "  [ERROR] Profile: not writable")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Tablet")
	switch {
	case !r.Device.Checked:
		fmt.Fprintf(w, "  [--] %s not checked\n", r.Device.Address)
	case r.Device.Reachable:
		fmt.Fprintf(w, "  [OK] Reachable at %s\n", r.Device.Address)
	default:
		fmt.Fprintf(w, "  [WARN] Not reachable at %s\n", r.Device.Address)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
