package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/joho/godotenv"
)

func TestValidName(t *testing.T) {
	for name, want := range map[string]bool{
		"SECRET_KEY": true,
		"_private":   true,
		"KEY2":       true,
		"":           false,
		"2KEY":       false,
		"MY-KEY":     false,
		"MY KEY":     false,
		"KEY=":       false,
	} {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSetCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	if err := Set(path, "SECRET_KEY", "AQIDBA==", false); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := Lookup(path, "SECRET_KEY")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != "AQIDBA==" {
		t.Fatalf("expected AQIDBA==, got %q", got)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if mode := st.Mode().Perm(); mode != 0600 {
		t.Fatalf("expected mode 0600, got %o", mode)
	}
}

func TestSetKeepsOtherVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	orig := "# database\nDB_HOST=localhost\nDB_PASSWORD=\"p@ss word\"\nPIN=0042\nBASE=/srv\nDATA_DIR=${BASE}/data"
	if err := os.WriteFile(path, []byte(orig), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Set(path, "JWT_SECRET", "+/8=", false); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(orig+"\nJWT_SECRET='+/8='\n", string(raw)); diff != "" {
		t.Fatalf("env file mismatch (-want +got):\n%s", diff)
	}

	got, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := map[string]string{
		"DB_HOST":     "localhost",
		"DB_PASSWORD": "p@ss word",
		"PIN":         "0042",
		"BASE":        "/srv",
		"DATA_DIR":    "/srv/data",
		"JWT_SECRET":  "+/8=",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("env vars mismatch (-want +got):\n%s", diff)
	}
}

func TestSetValuesStayLiteral(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	for name, value := range map[string]string{
		"DIGITS":    "0123",
		"DOLLAR":    "$HOME",
		"REFERENCE": "${BASE}/x",
	} {
		if err := Set(path, name, value, false); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
		got, err := Lookup(path, name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if got != value {
			t.Fatalf("%s: stored %q, read back %q", name, value, got)
		}
	}
}

func TestSetReplacesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	orig := "A=1\nexport SECRET_KEY=\"old\nvalue\"\n# keep me\nB=2\nSECRET_KEY : again\n"
	if err := os.WriteFile(path, []byte(orig), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Set(path, "SECRET_KEY", "new", true); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "A=1\nSECRET_KEY='new'\n# keep me\nB=2\n"
	if diff := cmp.Diff(want, string(raw)); diff != "" {
		t.Fatalf("env file mismatch (-want +got):\n%s", diff)
	}
}

func TestSetInvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	for _, value := range []string{"it's", `back\slash`, "two\nlines", "cr\r"} {
		if err := Set(path, "SECRET_KEY", value, false); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("Set(%q): expected ErrInvalidValue, got %v", value, err)
		}
	}
}

func TestSetIgnoresStaleTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	victim := filepath.Join(dir, "victim")
	if err := os.WriteFile(victim, []byte("untouched"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Symlink(victim, path+".tmp"); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := Set(path, "SECRET_KEY", "AQIDBA==", false); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := os.ReadFile(victim)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "untouched" {
		t.Fatalf("symlink target was written: %q", raw)
	}
	leftovers, err := filepath.Glob(filepath.Join(dir, ".env.*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestSetRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := Set(path, "SECRET_KEY", "old", false); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := Set(path, "SECRET_KEY", "new", false); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if got, _ := Lookup(path, "SECRET_KEY"); got != "old" {
		t.Fatalf("expected value to stay old, got %q", got)
	}

	if err := Set(path, "SECRET_KEY", "new", true); err != nil {
		t.Fatalf("set with overwrite: %v", err)
	}
	if got, _ := Lookup(path, "SECRET_KEY"); got != "new" {
		t.Fatalf("expected value new, got %q", got)
	}
}

func TestSetInvalidName(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := Set(path, "BAD-NAME", "x", false); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no file to be created, got %v", err)
	}
}

func TestSetMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", ".env")
	if err := Set(path, "SECRET_KEY", "x", false); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLookupNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OTHER=1\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Lookup(path, "SECRET_KEY"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupMissingFile(t *testing.T) {
	_, err := Lookup(filepath.Join(t.TempDir(), ".env"), "SECRET_KEY")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
