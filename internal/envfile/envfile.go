// Package envfile reads and updates .env style configuration files.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

var (
	// ErrNotFound is returned by Lookup when the file doesn't assign the variable.
	ErrNotFound = errors.New("variable not set")
	// ErrExists is returned by Set when the variable is present and overwrite is off.
	ErrExists = errors.New("variable already set")
	// ErrInvalidName is returned for names rejected by ValidName.
	ErrInvalidName = errors.New("invalid variable name")
	// ErrInvalidValue is returned by Set for values it can't store literally.
	ErrInvalidValue = errors.New("value can't be stored single-quoted")
)

var nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether name can be used as an environment variable name.
func ValidName(name string) bool {
	return nameRE.MatchString(name)
}

// Lookup returns the value of name in the env file at path.
func Lookup(path, name string) (string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return "", fmt.Errorf("read(%q): %w", path, err)
	}
	v, ok := vars[name]
	if !ok {
		return "", fmt.Errorf("%s in %q: %w", name, path, ErrNotFound)
	}
	return v, nil
}

// Set stores name=value in the env file at path, creating the file if needed.
// An existing variable is only replaced if overwrite is set.
//
// Only the lines assigning name are touched; everything else in the file is
// kept byte for byte. The value is written single-quoted so it is never
// expanded, which means it can't contain a single quote, a backslash or a
// line break. The file is rewritten with mode 0600.
func Set(path, name, value string, overwrite bool) error {
	if !ValidName(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if strings.ContainsAny(value, "'\\\r\n") {
		return fmt.Errorf("%s: %w", name, ErrInvalidValue)
	}
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read(%q): %w", path, err)
	}
	vars, err := godotenv.UnmarshalBytes(raw)
	if err != nil {
		return fmt.Errorf("parse(%q): %w", path, err)
	}
	if _, ok := vars[name]; ok && !overwrite {
		return fmt.Errorf("%s in %q: %w", name, path, ErrExists)
	}

	content := assign(string(raw), name, name+"='"+value+"'")
	return writeFile(path, content)
}

// assign replaces every assignment of name in content with line, or appends
// line if there is none.
func assign(content, name, line string) string {
	re := regexp.MustCompile(`^\s*(?:export\s+)?` + regexp.QuoteMeta(name) + `\s*[=:]`)
	lines := strings.SplitAfter(content, "\n")
	var out strings.Builder
	replaced := false
	for i := 0; i < len(lines); i++ {
		loc := re.FindStringIndex(lines[i])
		if loc == nil {
			out.WriteString(lines[i])
			continue
		}
		// Skip the continuation lines of a quoted multi-line value.
		rest := strings.TrimLeft(lines[i][loc[1]:], " \t")
		if rest != "" && (rest[0] == '"' || rest[0] == '\'') {
			quote := rest[0]
			for !closesQuote(rest[1:], quote) && i+1 < len(lines) {
				i++
				rest = " " + lines[i]
			}
		}
		if !replaced {
			out.WriteString(line + "\n")
			replaced = true
		}
	}
	if !replaced {
		s := out.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			out.WriteString("\n")
		}
		out.WriteString(line + "\n")
	}
	return out.String()
}

func closesQuote(s string, quote byte) bool {
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\':
			i++
		case s[i] == quote:
			return true
		}
	}
	return false
}

func writeFile(path, content string) error {
	fh, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", path, err)
	}
	tmp := fh.Name()
	defer os.Remove(tmp)
	if err := fh.Chmod(0600); err != nil {
		fh.Close()
		return fmt.Errorf("chmod(%q, 0600): %w", tmp, err)
	}
	if _, err := fh.WriteString(content); err != nil {
		fh.Close()
		return fmt.Errorf("write(%q): %w", tmp, err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return fmt.Errorf("fsync(%q): %w", tmp, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close(%q): %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename(%q, %q): %w", tmp, path, err)
	}
	return nil
}
