package adapter

import "context"

// TranscribeInput is what a speech-to-text provider receives.
type TranscribeInput struct {
	Audio       []byte
	Filename    string
	ContentType string
}

// Transcriber is the port for speech-to-text providers. It returns the
// transcript text or an error; it never returns a partial result.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, in TranscribeInput) (string, error)
}
