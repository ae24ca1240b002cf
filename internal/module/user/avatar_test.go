package user

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAvatar(t *testing.T) {
	smallPayload := base64.StdEncoding.EncodeToString([]byte("tiny image bytes"))
	bigPayload := base64.StdEncoding.EncodeToString(make([]byte, MaxAvatarBytes+1))
	exactPayload := base64.StdEncoding.EncodeToString(make([]byte, MaxAvatarBytes))

	tests := []struct {
		name     string
		photoURL string
		wantErr  error
	}{
		{"empty", "", nil},
		{"plain url", "https://cdn.example.com/avatar.png", nil},
		{"small data uri", "data:image/png;base64," + smallPayload, nil},
		{"exactly at limit", "data:image/png;base64," + exactPayload, nil},
		{"over limit", "data:image/png;base64," + bigPayload, ErrAvatarTooLarge},
		{"missing comma", "data:image/png;base64", ErrAvatarInvalid},
		{"bad base64", "data:image/png;base64,!!!not-base64!!!", ErrAvatarInvalid},
		{"unpadded base64", "data:image/png;base64," + strings.TrimRight(smallPayload, "="), nil},
		{"plain text payload", "data:text/plain,hello%20world", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAvatar(tt.photoURL)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
