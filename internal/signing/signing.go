// Package signing provides optional armored detached signatures over the
// checksum record. A signing key in the secrets directory turns it on;
// without one, sets are simply released unsigned.
package signing

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Conventional key file names under the secrets directory.
const (
	PrivateKeyFile = "signing_key.asc"
	PublicKeyFile  = "signing_pub.asc"
)

// SignDetached writes an armored detached signature for dataPath to
// sigPath using the first signing-capable key in the keyring at keyPath.
func SignDetached(dataPath, keyPath, sigPath string) error {
	keyring, err := loadKeyring(keyPath)
	if err != nil {
		return err
	}

	var signer *openpgp.Entity
	for _, entity := range keyring {
		if entity.PrivateKey != nil {
			signer = entity
			break
		}
	}
	if signer == nil {
		return fmt.Errorf("keyring %s contains no private key", keyPath)
	}

	data, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	defer data.Close()

	out, err := os.OpenFile(sigPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create signature: %w", err)
	}
	defer out.Close()

	if err := openpgp.ArmoredDetachSign(out, signer, data, nil); err != nil {
		return fmt.Errorf("sign %s: %w", dataPath, err)
	}
	return nil
}

// VerifyDetached checks the armored detached signature at sigPath over
// dataPath against the keyring at pubKeyPath.
func VerifyDetached(dataPath, sigPath, pubKeyPath string) error {
	keyring, err := loadKeyring(pubKeyPath)
	if err != nil {
		return err
	}

	data, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	defer data.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	// Try armored first, then binary.
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, data, sig, nil)
	if err != nil {
		data.Seek(0, io.SeekStart)
		sig.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, data, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

// loadKeyring loads an armored (or, failing that, binary) keyring.
func loadKeyring(path string) (openpgp.EntityList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer file.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(file)
	if err != nil {
		file.Seek(0, io.SeekStart)
		keyring, err = openpgp.ReadKeyRing(file)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}
