package pairing

import (
	"errors"
	"testing"
)

func TestChecksumVerify(t *testing.T) {
	content := []byte(`{"pairing_id":"abc"}`)

	sum := Checksum(content)
	if len(sum) != 64 {
		t.Fatalf("checksum length = %d, want 64", len(sum))
	}

	if err := Verify(content, sum); err != nil {
		t.Errorf("Verify: %v", err)
	}

	if err := Verify([]byte("tampered"), sum); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("err = %v, want ErrChecksumMismatch", err)
	}

	if err := Verify(content, ""); !errors.Is(err, ErrEmptyChecksum) {
		t.Errorf("err = %v, want ErrEmptyChecksum", err)
	}
}
