package enums

import "slices"

// ContentKind names a publicly browsable collection.
type ContentKind string

const (
	ContentKindArticle  ContentKind = "articles"
	ContentKindAirdrop  ContentKind = "airdrops"
	ContentKindPresale  ContentKind = "presales"
	ContentKindEvent    ContentKind = "events"
	ContentKindExchange ContentKind = "exchanges"
	ContentKindMeme     ContentKind = "memes"
)

func (k ContentKind) Valid() bool {
	return slices.Contains(AllContentKinds(), k)
}

func AllContentKinds() []ContentKind {
	return []ContentKind{ContentKindArticle, ContentKindAirdrop, ContentKindPresale, ContentKindEvent, ContentKindExchange, ContentKindMeme}
}

// ContentKindFor returns the collection a moderated model type is published in.
func ContentKindFor(m ModelType) ContentKind {
	switch m {
	case ModelTypeAirdrop:
		return ContentKindAirdrop
	case ModelTypePresale:
		return ContentKindPresale
	case ModelTypeEvent:
		return ContentKindEvent
	default:
		return ContentKindArticle
	}
}

// ModelTypeForKind is the inverse of ContentKindFor for moderated kinds.
func ModelTypeForKind(k ContentKind) (ModelType, bool) {
	switch k {
	case ContentKindAirdrop:
		return ModelTypeAirdrop, true
	case ContentKindPresale:
		return ModelTypePresale, true
	case ContentKindEvent:
		return ModelTypeEvent, true
	case ContentKindArticle:
		return ModelTypeArticle, true
	}
	return "", false
}
