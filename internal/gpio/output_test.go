package gpio

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestStub(t *testing.T) {
	out := newStub(newTestLogger())

	if err := out.Configure(17, 27, 22); err != nil {
		t.Fatalf("Configure() returned error: %v", err)
	}
	if err := out.Set(17, true); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if !out.level(17) {
		t.Error("pin 17 should be HIGH after Set(17, true)")
	}
	if err := out.Set(17, false); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if out.level(17) {
		t.Error("pin 17 should be LOW after Set(17, false)")
	}

	// Close is idempotent
	if err := out.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Errorf("second Close() returned error: %v", err)
	}

	if out.Name() != BackendLog {
		t.Errorf("Name() = %q, want %q", out.Name(), BackendLog)
	}
}

func TestStub_LogsLevel(t *testing.T) {
	var buf strings.Builder
	out := newStub(slog.New(slog.NewTextHandler(&buf, nil)))

	_ = out.Set(22, true)
	_ = out.Set(22, false)

	output := buf.String()
	if !strings.Contains(output, "pin=22 level=HIGH") {
		t.Errorf("missing HIGH write in %q", output)
	}
	if !strings.Contains(output, "pin=22 level=LOW") {
		t.Errorf("missing LOW write in %q", output)
	}
}

// fakeSysfsTree creates gpioN directories as the kernel would after export.
func fakeSysfsTree(t *testing.T, channels ...int) string {
	t.Helper()
	base := t.TempDir()
	for _, name := range []string{"export", "unexport"} {
		if err := os.WriteFile(filepath.Join(base, name), nil, 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	for _, ch := range channels {
		dir := filepath.Join(base, "gpio"+strconv.Itoa(ch))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return base
}

func readAttr(t *testing.T, base string, ch int, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(base, "gpio"+strconv.Itoa(ch), attr))
	if err != nil {
		t.Fatalf("failed to read %s of GPIO %d: %v", attr, ch, err)
	}
	return string(data)
}

func TestSysfs_ConfigureSetClose(t *testing.T) {
	base := fakeSysfsTree(t, 17, 27)
	out := newSysfs(base)

	if err := out.Configure(17, 27); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if got := readAttr(t, base, 17, "direction"); got != "low" {
		t.Errorf("direction = %q, want low", got)
	}

	if err := out.Set(27, true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got := readAttr(t, base, 27, "value"); got != "1" {
		t.Errorf("value = %q, want 1", got)
	}
	if err := out.Set(27, false); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got := readAttr(t, base, 27, "value"); got != "0" {
		t.Errorf("value = %q, want 0", got)
	}

	if err := out.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if got := readAttr(t, base, 17, "direction"); got != "in" {
		t.Errorf("direction after Close = %q, want in", got)
	}

	// Lines are released, writes must fail
	if err := out.Set(17, true); err == nil {
		t.Error("Set() after Close should return error")
	}
}

func TestSysfs_SetUnconfigured(t *testing.T) {
	out := newSysfs(fakeSysfsTree(t, 17))
	if err := out.Set(17, true); err == nil {
		t.Error("Set() on unconfigured channel should return error")
	}
}

func TestSysfs_ExportWithoutLine(t *testing.T) {
	base := fakeSysfsTree(t)
	out := newSysfs(base)

	// export succeeds (plain file) but no gpio22 directory appears
	err := out.Configure(22)
	if err == nil {
		t.Fatal("Configure() should fail when the line never appears")
	}
	data, readErr := os.ReadFile(filepath.Join(base, "export"))
	if readErr != nil {
		t.Fatalf("failed to read export: %v", readErr)
	}
	if string(data) != "22" {
		t.Errorf("export = %q, want 22", data)
	}
}
