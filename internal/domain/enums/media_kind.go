package enums

type MediaKind string

const (
	MediaKindMeme  MediaKind = "meme"
	MediaKindVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaKindMeme || k == MediaKindVideo
}
