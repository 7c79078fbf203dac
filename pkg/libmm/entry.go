package libmm

import (
	"strings"
	"time"
)

// NoVideo is the video_url sentinel of an entry recorded without a video.
const NoVideo = "local-only"

// An Entry is the wire representation of a journal entry.
type Entry struct {
	ID        string     `json:"uuid"`
	Title     string     `json:"title"`
	Tags      []string   `json:"tags"`
	VideoKey  string     `json:"video_url"`
	Duration  string     `json:"duration"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// HasVideo returns true when the entry references a blob key.
func (e *Entry) HasVideo() bool {
	return e.VideoKey != "" && e.VideoKey != NoVideo
}

// Validate checks the shape of a record received from the repository. A
// malformed record fails with a RemoteError instead of propagating zero
// values into the caller.
func (e *Entry) Validate() error {
	switch {
	case e.ID == "":
		return newRemoteError(0, "malformed entry: missing uuid")
	case strings.TrimSpace(e.Title) == "":
		return newRemoteError(0, "malformed entry: missing title")
	case e.VideoKey == "":
		return newRemoteError(0, "malformed entry: missing video reference")
	case e.CreatedAt == nil:
		return newRemoteError(0, "malformed entry: missing creation date")
	}
	return nil
}
