package enums

type SubmissionType string

const (
	SubmissionTypePresale          SubmissionType = "presale"
	SubmissionTypeAirdrop          SubmissionType = "airdrop"
	SubmissionTypeEvent            SubmissionType = "event"
	SubmissionTypePressRelease     SubmissionType = "press_release"
	SubmissionTypeGuestPost        SubmissionType = "guest_post"
	SubmissionTypeSponsoredContent SubmissionType = "sponsored_content"
)

func (t SubmissionType) Valid() bool {
	switch t {
	case SubmissionTypePresale, SubmissionTypeAirdrop, SubmissionTypeEvent,
		SubmissionTypePressRelease, SubmissionTypeGuestPost, SubmissionTypeSponsoredContent:
		return true
	}
	return false
}

func (t SubmissionType) IsArticle() bool {
	switch t {
	case SubmissionTypePressRelease, SubmissionTypeGuestPost, SubmissionTypeSponsoredContent:
		return true
	}
	return false
}

// ModelType names the concrete table a submission points at.
type ModelType string

const (
	ModelTypeAirdrop ModelType = "airdrop"
	ModelTypePresale ModelType = "presale"
	ModelTypeEvent   ModelType = "event"
	ModelTypeArticle ModelType = "article"
)

func (m ModelType) Valid() bool {
	switch m {
	case ModelTypeAirdrop, ModelTypePresale, ModelTypeEvent, ModelTypeArticle:
		return true
	}
	return false
}

func AllModelTypes() []ModelType {
	return []ModelType{ModelTypeAirdrop, ModelTypePresale, ModelTypeEvent, ModelTypeArticle}
}
