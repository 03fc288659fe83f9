package fetcher

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

func newTestEntity(t *testing.T, name string) *openpgp.Entity {
	t.Helper()
	e, err := openpgp.NewEntity(name, "test", name+"@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	return e
}

// writeKeyring stores e's public key, armored or binary, and returns the path.
func writeKeyring(t *testing.T, e *openpgp.Entity, armored bool) string {
	t.Helper()
	var buf bytes.Buffer
	if armored {
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := e.Serialize(w); err != nil {
			t.Fatal(err)
		}
		w.Close()
	} else if err := e.Serialize(&buf); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "keyring.gpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func detachSign(t *testing.T, e *openpgp.Entity, data []byte, armored bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	if armored {
		err = openpgp.ArmoredDetachSign(&buf, e, bytes.NewReader(data), nil)
	} else {
		err = openpgp.DetachSign(&buf, e, bytes.NewReader(data), nil)
	}
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return buf.Bytes()
}

func clearSign(t *testing.T, e *openpgp.Entity, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, e.PrivateKey, nil)
	if err != nil {
		t.Fatalf("clearsign: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadKeyring(t *testing.T) {
	e := newTestEntity(t, "signer")
	for _, armored := range []bool{true, false} {
		kr, err := LoadKeyring(writeKeyring(t, e, armored))
		if err != nil {
			t.Fatalf("LoadKeyring(armored=%v): %v", armored, err)
		}
		if len(kr) != 1 {
			t.Errorf("expected one key, got %d", len(kr))
		}
	}

	garbage := filepath.Join(t.TempDir(), "garbage.gpg")
	if err := os.WriteFile(garbage, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKeyring(garbage); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadKeyring(filepath.Join(t.TempDir(), "missing.gpg")); err == nil {
		t.Error("expected read error")
	}
}

func TestVerifyDetached(t *testing.T) {
	signer := newTestEntity(t, "signer")
	other := newTestEntity(t, "other")
	kr, err := LoadKeyring(writeKeyring(t, signer, true))
	if err != nil {
		t.Fatal(err)
	}
	data := []byte(digestA + " *image.img\n")

	for _, armored := range []bool{true, false} {
		if err := VerifyDetached(kr, data, detachSign(t, signer, data, armored)); err != nil {
			t.Errorf("valid signature (armored=%v) rejected: %v", armored, err)
		}
	}

	tampered := append([]byte{}, data...)
	tampered[0] = 'b'
	if err := VerifyDetached(kr, tampered, detachSign(t, signer, data, true)); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("tampered data: expected ErrSignatureInvalid, got %v", err)
	}
	if err := VerifyDetached(kr, data, detachSign(t, other, data, true)); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("unknown signer: expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyClearsigned(t *testing.T) {
	signer := newTestEntity(t, "signer")
	kr, err := LoadKeyring(writeKeyring(t, signer, false))
	if err != nil {
		t.Fatal(err)
	}
	body := []byte("SHA256 (a.qcow2) = " + digestA + "\n")

	plain, err := VerifyClearsigned(kr, clearSign(t, signer, body))
	if err != nil {
		t.Fatalf("VerifyClearsigned: %v", err)
	}
	got, err := ParseDigest(plain, FormatFedoraChecksum, "a.qcow2")
	if err != nil || got != digestA {
		t.Errorf("plaintext did not parse: %s, %v", got, err)
	}

	if _, err := VerifyClearsigned(kr, body); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("unsigned manifest: expected ErrSignatureInvalid, got %v", err)
	}
	other := newTestEntity(t, "other")
	if _, err := VerifyClearsigned(kr, clearSign(t, other, body)); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("unknown signer: expected ErrSignatureInvalid, got %v", err)
	}
}
