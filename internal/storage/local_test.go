package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreSaveAndResolve(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	stored, err := store.Save(CategoryProforma, "quote.pdf", []byte("content"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(stored, CategoryProforma+string(filepath.Separator)) {
		t.Errorf("stored path = %q, want under %s/", stored, CategoryProforma)
	}
	if !strings.HasSuffix(stored, "_quote.pdf") {
		t.Errorf("stored path = %q, want randomized prefix before original name", stored)
	}

	data, err := os.ReadFile(store.Resolve(stored))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("content = %q", data)
	}
}

func TestLocalStoreCollisionFree(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	first, err := store.Save(CategoryReceipt, "receipt.png", []byte("a"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(CategoryReceipt, "receipt.png", []byte("b"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first == second {
		t.Error("repeated uploads must not collide")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\quote.pdf`, "quote.pdf"},
		{"", "upload"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
