//go:build !windows

package platform

import "encoding/hex"

// randomHex returns n random bytes from the platform CSPRNG, hex-encoded.
// The actual entropy source is platform-specific (getentropy on Darwin,
// getrandom with EINTR retry on Linux, crypto/rand on the BSDs) and lives
// in posix_darwin.go / posix_linux.go / posix_bsd.go.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if err := fillRandom(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
