package fetcher

import (
	"bytes"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/open-edge-platform/boxctl/internal/utils/logger"
	"github.com/open-edge-platform/boxctl/internal/utils/security"
)

// LoadKeyring reads an OpenPGP public keyring, armored or binary.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	log := logger.Logger()

	data, err := security.SafeReadFile(path, security.ResolveSymlinks)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		log.Debugf("Keyring %s is not armored, trying binary format: %v", path, err)
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse keyring %s (tried armored and binary): %w", path, err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring %s contains no keys", path)
	}
	return keyring, nil
}

// VerifyDetached checks an armored or binary detached signature over data.
func VerifyDetached(keyring openpgp.EntityList, data, sig []byte) error {
	log := logger.Logger()

	_, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), &packet.Config{})
	if err == nil {
		return nil
	}
	log.Debugf("Armored signature check failed, trying binary format: %v", err)

	if _, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), &packet.Config{}); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return nil
}

// VerifyClearsigned checks a clear-signed document and returns its plaintext.
func VerifyClearsigned(keyring openpgp.EntityList, data []byte) ([]byte, error) {
	block, _ := clearsign.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: manifest is not clear-signed", ErrSignatureInvalid)
	}
	if _, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, &packet.Config{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return block.Plaintext, nil
}
