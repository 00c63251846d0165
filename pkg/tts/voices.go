package tts

import "strings"

// Voice is a named ElevenLabs voice.
type Voice struct {
	Name        string
	ID          string
	Description string
}

// ElevenLabsVoices are the presets accepted by name wherever a voice ID is.
var ElevenLabsVoices = []Voice{
	{"sarah", "EXAVITQu4vr4xnSDxMaL", "American female, soft"},
	{"rachel", "21m00Tcm4TlvDq8ikWAM", "American female, calm"},
	{"charlotte", "XB0fDUnXU5powFXDhCwa", "British female, warm"},
	{"aria", "9BWtsMINqrJLrRacOk9x", "American female, expressive"},
	{"josh", "TxGEqnHWrfWFTfGW9XjX", "American male, deep"},
	{"adam", "pNInz6obpgDQGcFmaJgB", "American male, deep"},
}

// DefaultElevenLabsVoice is the preset used for milestone announcements.
const DefaultElevenLabsVoice = "sarah"

func findVoice(name string) (Voice, bool) {
	for _, v := range ElevenLabsVoices {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Voice{}, false
}

// ResolveElevenLabsVoice maps a preset name (case-insensitive) to its
// voice ID. Anything else is assumed to be an ID already.
func ResolveElevenLabsVoice(name string) string {
	if v, ok := findVoice(name); ok {
		return v.ID
	}
	return name
}

// IsElevenLabsPreset reports whether name is a preset.
func IsElevenLabsPreset(name string) bool {
	_, ok := findVoice(name)
	return ok
}

// VoiceNames lists the preset names, for help text.
func VoiceNames() []string {
	names := make([]string, len(ElevenLabsVoices))
	for i, v := range ElevenLabsVoices {
		names[i] = v.Name
	}
	return names
}
