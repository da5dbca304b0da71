package model

import (
	"path/filepath"
	"strings"
)

const defaultAudioContentType = "audio/wav"

var audioContentTypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"webm": "audio/webm",
	"mp4":  "audio/mp4",
}

// AudioContentType maps a filename extension to the MIME type sent to the
// transcription provider. Unknown extensions fall back to audio/wav.
func AudioContentType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ct, ok := audioContentTypes[ext]; ok {
		return ct
	}
	return defaultAudioContentType
}
