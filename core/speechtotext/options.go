package speechtotext

import "github.com/koscakluka/ema-chat/core/audio"

const DefaultLanguage = "en-US"

type TranscriptionOptions struct {
	// Language is a BCP 47 tag.
	Language string

	// TranscriptCallback receives interim and final transcripts. Interim
	// transcripts may be superseded by later ones; a final transcript ends
	// an utterance.
	TranscriptCallback func(transcript string, isFinal bool)

	StartedCallback func()
	EndedCallback   func()
	ErrorCallback   func(err *Error)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

// NewTranscriptionOptions applies opts over the defaults. Callbacks that are
// left unset are replaced with no-ops.
func NewTranscriptionOptions(opts ...TranscriptionOption) TranscriptionOptions {
	options := TranscriptionOptions{
		Language:     DefaultLanguage,
		EncodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.TranscriptCallback == nil {
		options.TranscriptCallback = func(string, bool) {}
	}
	if options.StartedCallback == nil {
		options.StartedCallback = func() {}
	}
	if options.EndedCallback == nil {
		options.EndedCallback = func() {}
	}
	if options.ErrorCallback == nil {
		options.ErrorCallback = func(*Error) {}
	}
	return options
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if language != "" {
			o.Language = language
		}
	}
}

func WithTranscriptCallback(callback func(transcript string, isFinal bool)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptCallback = callback
	}
}

func WithStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.StartedCallback = callback
	}
}

func WithEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EndedCallback = callback
	}
}

func WithErrorCallback(callback func(err *Error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}
