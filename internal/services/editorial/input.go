package editorial

import (
	"strings"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/pkg/validate"
)

const maxTags = 10

type ArticleInput struct {
	Title         string   `json:"title"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	ContentType   string   `json:"content_type"`
	Status        string   `json:"status"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	CoverImageKey *string  `json:"cover_image_key"`
	SourceURL     *string  `json:"source_url"`
	SponsorName   *string  `json:"sponsor_name"`
}

type ExchangeInput struct {
	Name             string  `json:"name"`
	URL              string  `json:"url"`
	LogoKey          *string `json:"logo_key"`
	Country          string  `json:"country"`
	TradingVolume24h float64 `json:"trading_volume_24h"`
	TrustScore       int     `json:"trust_score"`
	IsActive         *bool   `json:"is_active"`
}

type MemeInput struct {
	Title       string  `json:"title"`
	Kind        string  `json:"kind"`
	MediaKey    *string `json:"media_key"`
	VideoURL    *string `json:"video_url"`
	IsPublished *bool   `json:"is_published"`
}

var editorialStatuses = map[enums.ArticleStatus]bool{
	enums.ArticleStatusDraft:     true,
	enums.ArticleStatusPending:   true,
	enums.ArticleStatusReview:    true,
	enums.ArticleStatusPublished: true,
}

func buildArticle(in ArticleInput, authorID int64) (model.Article, error) {
	errs := validate.Errors{}
	errs.Check(validate.LengthBetween(in.Title, 5, 200), "title", "must be between 5 and 200 characters")
	errs.Check(validate.LengthBetween(in.Content, 50, 0), "content", "must be at least 50 characters")
	errs.Check(validate.MaxLength(in.Excerpt, 500), "excerpt", "must be at most 500 characters")
	errs.Check(validate.LengthBetween(in.Category, 1, 64), "category", "is required")

	contentType := enums.ArticleContentType(strings.TrimSpace(in.ContentType))
	if contentType == "" {
		contentType = enums.ContentTypeNews
	}
	errs.Check(contentType.Valid(), "content_type", "is not supported")

	status := enums.ArticleStatus(strings.TrimSpace(in.Status))
	if status == "" {
		status = enums.ArticleStatusDraft
	}
	errs.Check(editorialStatuses[status], "status", "must be draft, pending, review or published")

	if len(in.Tags) > maxTags {
		errs.Add("tags", "at most 10 tags")
	}
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if !validate.MaxLength(tag, 32) {
			errs.Add("tags", "each tag must be at most 32 characters")
			break
		}
		tags = append(tags, tag)
	}

	if in.SourceURL != nil && strings.TrimSpace(*in.SourceURL) != "" {
		errs.Check(validate.HTTPURL(*in.SourceURL), "source_url", "must be an http(s) URL")
	}
	if contentType == enums.ContentTypeSponsoredContent {
		errs.Check(in.SponsorName != nil && validate.Required(*in.SponsorName), "sponsor_name", "is required for sponsored content")
	}

	if err := errs.Err(); err != nil {
		return model.Article{}, err
	}

	return model.Article{
		Title:         strings.TrimSpace(in.Title),
		Excerpt:       strings.TrimSpace(in.Excerpt),
		Content:       in.Content,
		ContentType:   contentType,
		Status:        status,
		Category:      strings.TrimSpace(in.Category),
		Tags:          tags,
		CoverImageKey: trimmed(in.CoverImageKey),
		SourceURL:     trimmed(in.SourceURL),
		SponsorName:   trimmed(in.SponsorName),
		AuthorID:      &authorID,
	}, nil
}

func buildExchange(in ExchangeInput) (model.Exchange, error) {
	errs := validate.Errors{}
	errs.Check(validate.LengthBetween(in.Name, 2, 120), "name", "must be between 2 and 120 characters")
	errs.Check(validate.HTTPURL(in.URL), "url", "must be an http(s) URL")
	errs.Check(validate.MaxLength(in.Country, 64), "country", "must be at most 64 characters")
	errs.Check(in.TradingVolume24h >= 0, "trading_volume_24h", "must not be negative")
	errs.Check(in.TrustScore >= 0 && in.TrustScore <= 10, "trust_score", "must be between 0 and 10")
	if err := errs.Err(); err != nil {
		return model.Exchange{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return model.Exchange{
		Name:             strings.TrimSpace(in.Name),
		URL:              strings.TrimSpace(in.URL),
		LogoKey:          trimmed(in.LogoKey),
		Country:          strings.TrimSpace(in.Country),
		TradingVolume24h: in.TradingVolume24h,
		TrustScore:       in.TrustScore,
		IsActive:         active,
	}, nil
}

func buildMeme(in MemeInput) (model.Meme, error) {
	errs := validate.Errors{}
	errs.Check(validate.LengthBetween(in.Title, 2, 150), "title", "must be between 2 and 150 characters")

	kind := enums.MediaKind(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = enums.MediaKindMeme
	}
	errs.Check(kind.Valid(), "kind", "must be meme or video")

	mediaKey := trimmed(in.MediaKey)
	videoURL := trimmed(in.VideoURL)
	switch kind {
	case enums.MediaKindMeme:
		errs.Check(mediaKey != nil, "media_key", "is required for image memes")
	case enums.MediaKindVideo:
		if videoURL == nil {
			errs.Add("video_url", "is required for videos")
		} else {
			errs.Check(validate.HTTPURL(*videoURL), "video_url", "must be an http(s) URL")
		}
	}
	if err := errs.Err(); err != nil {
		return model.Meme{}, err
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}
	return model.Meme{
		Title:       strings.TrimSpace(in.Title),
		Kind:        kind,
		MediaKey:    mediaKey,
		VideoURL:    videoURL,
		IsPublished: published,
	}, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
