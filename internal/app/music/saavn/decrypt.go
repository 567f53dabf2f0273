package saavn

import (
	"crypto/des"
	"encoding/base64"
	"errors"
	"strings"
)

// JioSaavn encrypts media URLs with single DES in ECB mode under a fixed,
// publicly known key, padded PKCS#5.
var mediaURLKey = []byte("38346591")

// DecryptMediaURL turns an encrypted_media_url field into a playable URL.
// The decrypted URL points at the 96kbps stream; callers get the 320kbps
// variant and downgrade via MediaURLForBitrate if the song lacks it.
func DecryptMediaURL(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encrypted))
	if err != nil {
		return "", err
	}

	block, err := des.NewCipher(mediaURLKey)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return "", errors.New("encrypted url is not a whole number of blocks")
	}

	plain := make([]byte, len(raw))
	for i := 0; i < len(raw); i += block.BlockSize() {
		block.Decrypt(plain[i:], raw[i:])
	}

	plain, err = stripPKCS5(plain, block.BlockSize())
	if err != nil {
		return "", err
	}

	return strings.Replace(string(plain), "_96.mp4", "_320.mp4", 1), nil
}

func stripPKCS5(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errors.New("bad padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("bad padding")
		}
	}
	return b[:len(b)-n], nil
}
