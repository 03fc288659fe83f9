package fetcher

import "errors"

// Failures reported by the fetcher. Callers match them with errors.Is; the returned errors
// wrap them with the file or URL involved.
var (
	// ErrManifestEntryMissing means the checksum manifest has no line for the image file,
	// typically because the version or arch does not exist upstream.
	ErrManifestEntryMissing = errors.New("checksum manifest has no entry for image")

	// ErrChecksumMismatch means a freshly downloaded image still does not match the manifest.
	ErrChecksumMismatch = errors.New("image checksum does not match manifest")

	// ErrDownloadFailed covers transport errors and non-200 responses.
	ErrDownloadFailed = errors.New("download failed")

	// ErrSignatureInvalid means the manifest signature is missing or does not verify
	// against the configured keyring.
	ErrSignatureInvalid = errors.New("manifest signature verification failed")
)
