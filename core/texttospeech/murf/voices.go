package murf

type murfVoice string

const (
	VoiceNatalie murfVoice = "en-US-natalie"
	VoiceKen     murfVoice = "en-US-ken"
	VoiceAmara   murfVoice = "en-US-amara"
	VoiceCharles murfVoice = "en-US-charles"
	VoiceTerrell murfVoice = "en-US-terrell"
	VoiceRuby    murfVoice = "en-UK-ruby"
)

var defaultVoice = VoiceNatalie

const defaultStyle = "Conversational"

func GetAvailableVoices() []murfVoice {
	return []murfVoice{
		VoiceNatalie,
		VoiceKen,
		VoiceAmara,
		VoiceCharles,
		VoiceTerrell,
		VoiceRuby,
	}
}
