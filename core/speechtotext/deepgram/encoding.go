package deepgram

import (
	"fmt"

	"github.com/koscakluka/ema-chat/core/audio"
)

// checkEncoding validates that the live endpoint accepts the capture format.
func checkEncoding(encoding audio.EncodingInfo) error {
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return fmt.Errorf("unsupported sample rate %d", encoding.SampleRate)
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
	case audio.EncodingALaw, audio.EncodingMulaw:
		if encoding.SampleRate != 8000 {
			return fmt.Errorf("%s requires a sample rate of 8000, got %d", encoding.Format, encoding.SampleRate)
		}
	default:
		return fmt.Errorf("unsupported encoding %q", encoding.Format)
	}

	return nil
}
