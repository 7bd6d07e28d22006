package transport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveUnknownServer(t *testing.T) {
	resolver := NewBinaryResolver(map[string]ServerEntry{
		"security-scanner": {Package: "@acme/security-scanner"},
	})
	_, err := resolver.Resolve("security-scannr")
	var unknown *UnknownServerError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownServerError, got %v", err)
	}
	if unknown.Name != "security-scannr" {
		t.Fatalf("unexpected name: %q", unknown.Name)
	}
}

func TestResolveNotInstalled(t *testing.T) {
	resolver := NewBinaryResolver(map[string]ServerEntry{
		"security-scanner": {Package: "@acme/security-scanner", Binary: "definitely-not-on-path-xyz"},
	})
	_, err := resolver.Resolve("security-scanner")
	var notInstalled *NotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("expected NotInstalledError, got %v", err)
	}
	if notInstalled.Package != "@acme/security-scanner" {
		t.Fatalf("unexpected package: %q", notInstalled.Package)
	}
}

func TestResolveFromSearchDir(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "doc-gen")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	resolver := NewBinaryResolver(map[string]ServerEntry{
		"doc-gen": {Package: "@acme/doc-gen"},
	}, dir)
	resolver.lookPath = func(string) (string, error) { return "", errors.New("not on PATH") }

	path, err := resolver.Resolve("doc-gen")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if path != binary {
		t.Fatalf("expected %s, got %s", binary, path)
	}
}

func TestResolveSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doc-gen"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	resolver := NewBinaryResolver(map[string]ServerEntry{
		"doc-gen": {Package: "@acme/doc-gen"},
	}, dir)
	resolver.lookPath = func(string) (string, error) { return "", errors.New("not on PATH") }

	_, err := resolver.Resolve("doc-gen")
	var notInstalled *NotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("expected NotInstalledError for non-executable file, got %v", err)
	}
}

func TestKnownSorted(t *testing.T) {
	resolver := NewBinaryResolver(map[string]ServerEntry{
		"zeta": {Package: "z"},
		"alfa": {Package: "a"},
	})
	names := resolver.Known()
	if len(names) != 2 || names[0] != "alfa" || names[1] != "zeta" {
		t.Fatalf("unexpected names: %v", names)
	}
}
