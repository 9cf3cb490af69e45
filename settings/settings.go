// Package settings persists the address of the mirror in ip.json.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

const FileName = "ip.json"

// DefaultIP is the placeholder address shipped with the skill.
const DefaultIP = "0.0.0.0"

var (
	ErrInvalidIP     = errors.New("invalid ip address")
	ErrNotConfigured = errors.New("mirror ip address not configured")
)

type ipFile struct {
	IPAddress string `json:"ipAddress"`
}

func LoadIP(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotConfigured
		}
		return "", fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var f ipFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", FileName, err)
	}
	if f.IPAddress == "" {
		return "", ErrNotConfigured
	}
	return f.IPAddress, nil
}

func SaveIP(dir, addr string) error {
	if net.ParseIP(addr) == nil {
		return fmt.Errorf("%w: %q", ErrInvalidIP, addr)
	}
	data, err := json.Marshal(ipFile{IPAddress: addr})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

var spokenSeparators = strings.NewReplacer(" dot ", ".", " point ", ".")

// ParseIP extracts an address from an utterance such as
// "set ip address to 192.168.1.20". The keyword phrase and all spaces are
// removed before validation.
func ParseIP(utterance, keywords string) (string, error) {
	s := strings.ToLower(utterance)
	if keywords != "" {
		s = strings.Replace(s, strings.ToLower(keywords), "", 1)
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "to ")
	s = spokenSeparators.Replace(" " + s + " ")
	s = strings.ReplaceAll(s, " ", "")

	ip := net.ParseIP(s)
	if ip == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, s)
	}
	return ip.String(), nil
}
