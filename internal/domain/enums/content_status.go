package enums

type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPending   ArticleStatus = "pending"
	ArticleStatusReview    ArticleStatus = "review"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusRejected  ArticleStatus = "rejected"
	ArticleStatusArchived  ArticleStatus = "archived"
)

type ArticleContentType string

const (
	ContentTypeNews             ArticleContentType = "news"
	ContentTypeBlog             ArticleContentType = "blog"
	ContentTypeAnalysis         ArticleContentType = "analysis"
	ContentTypePressRelease     ArticleContentType = "press_release"
	ContentTypeGuestPost        ArticleContentType = "guest_post"
	ContentTypeSponsoredContent ArticleContentType = "sponsored_content"
)

func (c ArticleContentType) Valid() bool {
	switch c {
	case ContentTypeNews, ContentTypeBlog, ContentTypeAnalysis,
		ContentTypePressRelease, ContentTypeGuestPost, ContentTypeSponsoredContent:
		return true
	}
	return false
}

// TokenSaleStatus is shared by airdrops and presales.
type TokenSaleStatus string

const (
	TokenSaleStatusPending  TokenSaleStatus = "pending"
	TokenSaleStatusUpcoming TokenSaleStatus = "upcoming"
	TokenSaleStatusOngoing  TokenSaleStatus = "ongoing"
	TokenSaleStatusEnded    TokenSaleStatus = "ended"
	TokenSaleStatusRejected TokenSaleStatus = "rejected"
)

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

type EventType string

const (
	EventTypeConference EventType = "conference"
	EventTypeMeetup     EventType = "meetup"
	EventTypeWebinar    EventType = "webinar"
	EventTypeHackathon  EventType = "hackathon"
	EventTypeAMA        EventType = "ama"
)

func (e EventType) Valid() bool {
	switch e {
	case EventTypeConference, EventTypeMeetup, EventTypeWebinar, EventTypeHackathon, EventTypeAMA:
		return true
	}
	return false
}
