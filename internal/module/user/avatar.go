package user

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// MaxAvatarBytes is the largest decoded avatar image accepted inline.
const MaxAvatarBytes = 1 << 20 // 1 MiB

// ValidateAvatar checks a photo URL before it is stored. Plain URLs and
// empty values pass through; data URIs must be well-formed and decode
// to at most MaxAvatarBytes.
func ValidateAvatar(photoURL string) error {
	if photoURL == "" || !strings.HasPrefix(photoURL, "data:") {
		return nil
	}

	meta, payload, found := strings.Cut(photoURL[len("data:"):], ",")
	if !found {
		return ErrAvatarInvalid
	}

	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders omit padding.
			decoded, err = base64.RawStdEncoding.DecodeString(payload)
			if err != nil {
				return ErrAvatarInvalid
			}
		}
		if len(decoded) > MaxAvatarBytes {
			return ErrAvatarTooLarge
		}
		return nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return ErrAvatarInvalid
	}
	if len(unescaped) > MaxAvatarBytes {
		return ErrAvatarTooLarge
	}
	return nil
}
