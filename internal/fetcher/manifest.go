package fetcher

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var fedoraLine = regexp.MustCompile(`^SHA256 \((.+)\) = ([0-9A-Fa-f]+)$`)

// ParseDigest returns the SHA-256 hex digest recorded for filename in a manifest.
//
// For FormatSHA256Sums the line whose name field equals filename wins; failing that, the
// first line that merely contains filename is used and its first token taken as the digest.
// FedoraChecksum manifests match on the parenthesised name and skip comments and any
// clear-sign armor around the listing.
func ParseDigest(data []byte, format Format, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("empty file name")
	}

	var digest string
	var found bool
	switch format {
	case FormatSHA256Sums:
		digest, found = scanSHA256Sums(data, filename)
	case FormatFedoraChecksum:
		digest, found = scanFedora(data, filename)
	default:
		return "", fmt.Errorf("unsupported manifest format %q", format)
	}

	if !found {
		return "", fmt.Errorf("%w: %s", ErrManifestEntryMissing, filename)
	}
	if err := checkDigest(digest); err != nil {
		return "", fmt.Errorf("manifest entry for %s: %w", filename, err)
	}
	return strings.ToLower(digest), nil
}

func scanSHA256Sums(data []byte, filename string) (string, bool) {
	var fallback string
	haveFallback := false

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.Contains(line, filename) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.TrimPrefix(fields[1], "*") == filename {
			return fields[0], true
		}
		if !haveFallback {
			fallback, haveFallback = fields[0], true
		}
	}
	return fallback, haveFallback
}

func scanFedora(data []byte, filename string) (string, bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := fedoraLine.FindStringSubmatch(line)
		if m != nil && m[1] == filename {
			return m[2], true
		}
	}
	return "", false
}

func checkDigest(d string) error {
	if len(d) != 64 {
		return fmt.Errorf("malformed sha256 digest %q", d)
	}
	if _, err := hex.DecodeString(d); err != nil {
		return fmt.Errorf("malformed sha256 digest %q: %w", d, err)
	}
	return nil
}
