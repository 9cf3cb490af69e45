package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseIP(t *testing.T) {
	cases := []struct {
		utterance string
		keywords  string
		want      string
		wantErr   bool
	}{
		{"set ip address 192.168.1.20", "set ip address", "192.168.1.20", false},
		{"set ip address to 10.0.0.7", "set ip address", "10.0.0.7", false},
		{"set ip address 192 168 1 20", "set ip address", "", true},
		{"set ip address 192 dot 168 dot 1 dot 20", "set ip address", "192.168.1.20", false},
		{"Set IP Address 172.16.0.1", "set ip address", "172.16.0.1", false},
		{"set ip address fe80::1", "set ip address", "fe80::1", false},
		{"set ip address banana", "set ip address", "", true},
	}

	for _, c := range cases {
		got, err := ParseIP(c.utterance, c.keywords)
		if c.wantErr {
			if !errors.Is(err, ErrInvalidIP) {
				t.Errorf("%q: expected ErrInvalidIP, got %v", c.utterance, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.utterance, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q: got %q, want %q", c.utterance, got, c.want)
		}
	}
}

func TestSaveAndLoadIP(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadIP(dir); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	if err := SaveIP(dir, "192.168.1.20"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"ipAddress":"192.168.1.20"}` {
		t.Errorf("unexpected file content: %s", data)
	}

	ip, err := LoadIP(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ip != "192.168.1.20" {
		t.Errorf("got %q", ip)
	}
}

func TestSaveIPRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := SaveIP(dir, "not-an-ip"); !errors.Is(err, ErrInvalidIP) {
		t.Fatalf("expected ErrInvalidIP, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); !os.IsNotExist(err) {
		t.Error("ip.json should not have been written")
	}
}
