package model

// NoVideo is the videoUrl sentinel of an entry recorded without a video.
// The value is kept verbatim for compatibility with existing clients.
const NoVideo = "local-only"

// An Entry represents a journal entry database record and the rendered API response.
//
// VideoKey references a blob in the client's local blob store. The binary payload
// never reaches the server; only the key string is persisted here.
type Entry struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID   string   `json:"user_uuid" msgpack:"user_id"  storm:"index"`
	Title    string   `json:"title"     msgpack:"title"`
	Tags     []string `json:"tags"      msgpack:"tags"`
	VideoKey string   `json:"video_url" msgpack:"video_url"`
	Duration string   `json:"duration"  msgpack:"duration"`
}

// NewEntry returns a new entry without a video reference.
func NewEntry() *Entry {
	return &Entry{
		VideoKey: NoVideo,
		Tags:     []string{},
	}
}

// HasVideo returns true when the entry references a blob key.
func (e *Entry) HasVideo() bool {
	return e.VideoKey != "" && e.VideoKey != NoVideo
}
