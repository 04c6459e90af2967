package core

import (
	"time"
)

type MessageType int

const (
	// MessageTypeDSPLink represents a message containing a streaming-platform track URL
	MessageTypeDSPLink MessageType = iota
	// MessageTypeDirectURL represents a message containing a directly downloadable URL
	MessageTypeDirectURL
	// MessageTypeNonMusicLink represents a message containing a link that is not a music source
	MessageTypeNonMusicLink
	// MessageTypeFreeText represents a free-form text message naming a song
	MessageTypeFreeText
)

// Streaming platform identifiers as reported by the link classifier.
const (
	PlatformSpotify      = "spotify"
	PlatformDeezer       = "deezer"
	PlatformAppleMusic   = "apple_music"
	PlatformTidal        = "tidal"
	PlatformYouTubeMusic = "youtube_music"
	PlatformAmazonMusic  = "amazon_music"
)

type InputMessage struct {
	Type      MessageType
	Text      string
	URLs      []string
	ChatID    string
	SenderID  string
	MessageID string
	Timestamp time.Time

	// Platform names the streaming service of the first URL, when any.
	Platform string
	// CollectionKind is "album" or "playlist" for multi-track links.
	CollectionKind string
}

// QueryContext carries the normalized search terms derived from the
// original request. Track and Artist are empty when the input could not
// be split into separate parts.
type QueryContext struct {
	Query  string
	Track  string
	Artist string
}

// TrackMeta describes a playable source located by one of the resolvers.
type TrackMeta struct {
	Title     string
	URL       string
	Duration  time.Duration
	Extractor string
	Source    string
}

type RequestState int

const (
	// StateClassify indicates the incoming message is being classified
	StateClassify RequestState = iota
	// StateResolveLink indicates DSP link metadata is being extracted
	StateResolveLink
	// StateSearchSources indicates the source pipeline is running
	StateSearchSources
	// StateFetchCover indicates cover art is being resolved
	StateFetchCover
	// StateDownload indicates audio is being downloaded
	StateDownload
	// StateMerge indicates audio and cover are being merged into a video
	StateMerge
	// StateDeliver indicates the finished video is being sent back
	StateDeliver
	// StateDone indicates processing finished, successfully or not
	StateDone
)

// Request tracks a single song request through the pipeline.
type Request struct {
	Input     InputMessage
	State     RequestState
	Query     QueryContext
	Track     *TrackMeta
	CoverPath string
	AudioPath string
	VideoPath string
	Error     error
	StartTime time.Time
}
