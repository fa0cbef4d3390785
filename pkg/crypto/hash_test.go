package crypto

import (
	"encoding/hex"
	"testing"
)

func TestSHA256(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"616263", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		msg, _ := hex.DecodeString(tt.message)
		got := SHA256(msg)
		if hex.EncodeToString(got[:]) != tt.want {
			t.Errorf("SHA256(%q) = %x, want %s", tt.message, got, tt.want)
		}

		h := NewSHA256()
		h.Write(msg)
		if hex.EncodeToString(h.Sum(nil)) != tt.want {
			t.Errorf("NewSHA256(%q) mismatch", tt.message)
		}
	}
}
