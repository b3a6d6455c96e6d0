// Package hints builds remediation text for errors an operator can fix.
// Every hint has the form "\n  hint: <text>" so it can be appended to an
// error message.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-nymarkable/internal/fileutil"
)

// IsInContainer reports whether /.dockerenv exists. Tests replace it.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// IsSnap reports whether the process runs under snap confinement, where
// the browser may be unable to write outside the snap's own directories.
var IsSnap = func() bool {
	return os.Getenv("SNAP") != ""
}

// ForBrowserConnect suggests ROD_* variables when the browser cannot start.
// The sandbox hint is shown only under CI or in a container.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForProfileDir returns hints for a browser profile directory that cannot
// be created or written.
func ForProfileDir(dir string) string {
	hints := []string{"check that " + dir + " is writable and not locked by another browser"}
	if IsSnap() {
		hints = append(hints, "snap-confined browsers need `snap install --devmode` or a profile under ~/snap")
	} else {
		hints = append(hints, "a snap-packaged browser may need `snap install --devmode`")
	}
	return formatHints(hints)
}

// ForLoginRequired returns the hint shown when the stored session expired
// and no interactive login was possible.
func ForLoginRequired() string {
	return format("run `nymarkable login` and sign in in the browser window")
}

// ForConfigNotFound points at --config or the first searched path.
// Suggests --config flag and creating the default config file.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".nymarkable") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory is used when the output PDF cannot be written.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForDeviceUnreachable returns hints for upload transport failures.
func ForDeviceUnreachable(address string) string {
	return formatHints([]string{
		"connect the tablet over USB and enable the USB web interface",
		"check that http://" + address + " opens in a browser",
	})
}

// format prefixes a non-empty hint.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins hints with "; ".
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
