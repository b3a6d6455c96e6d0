package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/alnah/go-nymarkable/internal/config"
)

// envPrefix marks the variables this tool reads.
const envPrefix = "NYMARKABLE_"

// dotEnvName is loaded from the config home before variables are read.
const dotEnvName = ".env"

// envConfig holds configuration from environment variables.
type envConfig struct {
	ConfigPath    string   // NYMARKABLE_CONFIG: config file path
	DeviceIP      string   // NYMARKABLE_DEVICE_IP: tablet address
	Filename      string   // NYMARKABLE_FILENAME: file name on the tablet
	Sections      []string // NYMARKABLE_SECTIONS: comma-separated allow-list, `\,` for a literal comma
	Headful       bool     // NYMARKABLE_HEADFUL: show the browser
	LoginAttempts int      // NYMARKABLE_LOGIN_ATTEMPTS: login state machine bound
}

// knownEnvVars lists valid NYMARKABLE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	config.HomeEnvVar:           true,
	"NYMARKABLE_CONFIG":         true,
	"NYMARKABLE_DEVICE_IP":      true,
	"NYMARKABLE_FILENAME":       true,
	"NYMARKABLE_SECTIONS":       true,
	"NYMARKABLE_HEADFUL":        true,
	"NYMARKABLE_LOGIN_ATTEMPTS": true,
	"NYMARKABLE_CONTAINER":      true,
}

// loadDotEnv reads <home>/.env. Variables already set in the process
// environment win. A missing file is not an error.
func loadDotEnv() error {
	home, err := config.DefaultHome()
	if err != nil {
		return err
	}
	path := filepath.Join(home, dotEnvName)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", config.ErrConfigParse, path, err)
	}
	return nil
}

// loadEnvConfig reads configuration from environment variables.
// Malformed values are reported on w and ignored.
func loadEnvConfig(w io.Writer) *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("NYMARKABLE_CONFIG"),
		DeviceIP:   os.Getenv("NYMARKABLE_DEVICE_IP"),
		Filename:   os.Getenv("NYMARKABLE_FILENAME"),
		Sections:   splitList(os.Getenv("NYMARKABLE_SECTIONS")),
	}

	if v := os.Getenv("NYMARKABLE_HEADFUL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fmt.Fprintf(w, "warning: ignoring NYMARKABLE_HEADFUL=%q (want true or false)\n", v)
		}
		cfg.Headful = b
	}

	if v := os.Getenv("NYMARKABLE_LOGIN_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fmt.Fprintf(w, "warning: ignoring NYMARKABLE_LOGIN_ATTEMPTS=%q (want a positive integer)\n", v)
		} else {
			cfg.LoginAttempts = n
		}
	}

	return cfg
}

// splitList splits a comma-separated value, dropping blank items.
// `\,` is a literal comma, so "Arts\, Books" stays one item.
func splitList(s string) []string {
	var (
		out  []string
		item strings.Builder
	)
	flush := func() {
		if v := strings.TrimSpace(item.String()); v != "" {
			out = append(out, v)
		}
		item.Reset()
	}
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == ',':
			item.WriteByte(',')
			i++
		case s[i] == ',':
			flush()
		default:
			item.WriteByte(s[i])
		}
	}
	flush()
	return out
}

// warnUnknownEnvVars logs warnings for unrecognized NYMARKABLE_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment values on top of the config file.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via applyFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.DeviceIP != "" {
		cfg.Device.Address = env.DeviceIP
	}
	if env.Filename != "" {
		cfg.Device.Filename = env.Filename
	}
	if len(env.Sections) > 0 {
		cfg.Harvest.Sections = env.Sections
	}
	if env.Headful {
		cfg.Browser.Headful = true
	}
	if env.LoginAttempts > 0 {
		cfg.Login.MaxAttempts = env.LoginAttempts
	}
}
