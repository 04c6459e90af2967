package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Lifecycle
	"bot.startup":  "🎵 I'm online! Send me a song name or a streaming link and I'll turn it into a video clip.",
	"bot.shutdown": "🎵 I'm going offline. See you later!",

	// Rejections
	"reject.non_music_link": "That link doesn't look like a music link. Send me a song name or a streaming link.",
	"reject.collection":     "That's a %s link. I can only handle single tracks, send me one song at a time.",

	// Link resolution failures
	"link.unreadable":        "I couldn't read the track info from that link. Try sending the song name instead.",
	"link.unreadable_amazon": "Amazon Music links are tricky. Send me the song name instead, e.g. \"Artist - Title\".",

	// Pipeline outcomes
	"search.no_match":  "I couldn't find that song anywhere. Try a different spelling or add the artist name.",
	"search.searching": "🔍 Looking for your song...",
	"video.caption":    "🎵 %s",
	"error.generic":    "Error: %s",
}
