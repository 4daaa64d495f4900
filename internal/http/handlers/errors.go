package handlers

import "errors"

var (
	errCallLogDisabled = errors.New("call log is not configured")
	errBadSince        = errors.New("since must be a positive duration like 24h")
	errStatsFailed     = errors.New("could not load call stats")
	errSpeechDisabled  = errors.New("speech-to-text is not enabled")
	errMissingFile     = errors.New(`multipart field "file" is required`)
	errAudioTooLarge   = errors.New("audio exceeds the upload limit")
	errTranscription   = errors.New("transcription failed")
)
