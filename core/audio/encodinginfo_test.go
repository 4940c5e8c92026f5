package audio

import (
	"testing"
	"time"
)

func TestSilenceMatchesFormat(t *testing.T) {
	linear := GetDefaultEncodingInfo().Silence(50 * time.Millisecond)
	if len(linear) != 1600 {
		t.Fatalf("expected 1600 bytes of linear16 silence, got %d", len(linear))
	}
	for _, b := range linear {
		if b != 0 {
			t.Fatalf("expected zeroed linear16 silence, got %x", b)
		}
	}

	mulaw := EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}.Silence(10 * time.Millisecond)
	if len(mulaw) != 80 || mulaw[0] != 0xFF {
		t.Fatalf("expected 80 bytes of 0xFF, got %d bytes starting %x", len(mulaw), mulaw[0])
	}
}

func TestUnknownFormatHasNoSize(t *testing.T) {
	info := EncodingInfo{SampleRate: 16000, Format: "opus"}
	if info.BytesFor(time.Second) != 0 {
		t.Fatalf("expected unknown format to have no byte size")
	}
	if (EncodingInfo{}).IsZero() != true {
		t.Fatalf("expected zero value to be zero")
	}
}
