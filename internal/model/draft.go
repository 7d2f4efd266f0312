package model

// Screens the session can show.
const (
	ScreenFeed     = "feed"
	ScreenComposer = "composer"
)

// Draft is a post under construction. A draft with no media attached is
// "empty"; attaching media moves it to "previewing". MediaKey references a
// blob in storage and is owned by the draft until publish, at which point
// ownership transfers to the post.
//
// Rev increments on every mutation. Slow caption responses compare the rev
// they started from against the current one before applying their result,
// so a reset or file swap in the meantime wins.
type Draft struct {
	MediaKey    string `json:"-"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Type        string `json:"type,omitempty"`
	Caption     string `json:"caption"`
	ProductLink string `json:"productLink"`
	Rev         int64  `json:"-"`
}

// HasMedia reports whether a file is attached. Publish is blocked while
// this is false.
func (d *Draft) HasMedia() bool {
	return d != nil && d.MediaKey != ""
}
