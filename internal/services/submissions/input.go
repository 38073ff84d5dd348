package submissions

import (
	"fmt"
	"strings"
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
	"github.com/coinmews/coinmews/internal/domain/model"
	"github.com/coinmews/coinmews/internal/pkg/validate"
	pgrepo "github.com/coinmews/coinmews/internal/repo/postgres"
)

const (
	minTitleLength       = 3
	maxTitleLength       = 255
	minDescriptionLength = 20
	minArticleLength     = 100
	maxExcerptLength     = 500
	maxTags              = 10
)

const dateOnlyLayout = "2006-01-02"

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", dateOnlyLayout}

// StoreInput is the union of every submittable payload; Type selects which
// fields are read.
type StoreInput struct {
	Type  enums.SubmissionType `json:"type"`
	Title string               `json:"title"`

	ProjectName  string   `json:"project_name"`
	TokenSymbol  string   `json:"token_symbol"`
	Blockchain   string   `json:"blockchain"`
	Description  string   `json:"description"`
	Requirements string   `json:"requirements"`
	RewardAmount *string  `json:"reward_amount"`
	TotalSupply  *string  `json:"total_supply"`
	TokenPrice   *float64 `json:"token_price"`
	SoftCap      *float64 `json:"soft_cap"`
	HardCap      *float64 `json:"hard_cap"`
	WebsiteURL   string   `json:"website_url"`
	LogoKey      *string  `json:"logo_key"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`

	EventType string  `json:"event_type"`
	Location  string  `json:"location"`
	IsVirtual bool    `json:"is_virtual"`
	URL       *string `json:"url"`
	BannerKey *string `json:"banner_key"`

	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	CoverImageKey *string  `json:"cover_image_key"`
	SourceURL     *string  `json:"source_url"`
	SponsorName   *string  `json:"sponsor_name"`
}

// MediaKeys lists the upload keys referenced by the payload.
func (in StoreInput) MediaKeys() []string {
	keys := make([]string, 0, 3)
	for _, key := range []*string{in.LogoKey, in.BannerKey, in.CoverImageKey} {
		if key != nil && strings.TrimSpace(*key) != "" {
			keys = append(keys, strings.TrimSpace(*key))
		}
	}
	return keys
}

// buildSubmission validates in and turns it into a repository payload.
func buildSubmission(in StoreInput, userID int64, now time.Time) (pgrepo.NewSubmission, error) {
	errs := validate.Errors{}
	in.Title = strings.TrimSpace(in.Title)

	if !in.Type.Valid() {
		errs.Add("type", "must be one of presale, airdrop, event, press_release, guest_post, sponsored_content")
		return pgrepo.NewSubmission{}, errs
	}
	errs.Check(validate.LengthBetween(in.Title, minTitleLength, maxTitleLength), "title", fmt.Sprintf("must be %d-%d characters", minTitleLength, maxTitleLength))

	out := pgrepo.NewSubmission{
		Type:        in.Type,
		Title:       in.Title,
		SubmittedBy: userID,
		MediaKeys:   in.MediaKeys(),
		Now:         now,
	}

	switch in.Type {
	case enums.SubmissionTypeAirdrop:
		out.Airdrop = buildAirdrop(in, errs)
	case enums.SubmissionTypePresale:
		out.Presale = buildPresale(in, errs)
	case enums.SubmissionTypeEvent:
		out.Event = buildEvent(in, errs)
	default:
		out.Article = buildArticle(in, errs)
	}

	if err := errs.Err(); err != nil {
		return pgrepo.NewSubmission{}, err
	}
	return out, nil
}

type tokenFields struct {
	projectName string
	tokenSymbol string
	blockchain  string
	description string
	websiteURL  string
	start       time.Time
	end         time.Time
}

func checkTokenFields(in StoreInput, errs validate.Errors) tokenFields {
	f := tokenFields{
		projectName: strings.TrimSpace(in.ProjectName),
		tokenSymbol: strings.ToUpper(strings.TrimSpace(in.TokenSymbol)),
		blockchain:  strings.TrimSpace(in.Blockchain),
		description: strings.TrimSpace(in.Description),
		websiteURL:  strings.TrimSpace(in.WebsiteURL),
	}

	errs.Check(validate.LengthBetween(f.projectName, 2, 120), "project_name", "must be 2-120 characters")
	errs.Check(validate.LengthBetween(f.tokenSymbol, 2, 12) && validate.Alnum(f.tokenSymbol), "token_symbol", "must be 2-12 letters or digits")
	errs.Check(validate.LengthBetween(f.blockchain, 2, 60), "blockchain", "is required")
	errs.Check(validate.LengthBetween(f.description, minDescriptionLength, 0), "description", fmt.Sprintf("must be at least %d characters", minDescriptionLength))
	errs.Check(validate.HTTPURL(f.websiteURL), "website_url", "must be an absolute http or https URL")
	f.start, f.end = checkDateRange(in, errs)
	checkKey(in.LogoKey, "logo_key", errs)

	return f
}

func buildAirdrop(in StoreInput, errs validate.Errors) *model.Airdrop {
	f := checkTokenFields(in, errs)
	errs.Check(in.RewardAmount == nil || validate.MaxLength(*in.RewardAmount, 120), "reward_amount", "must be at most 120 characters")
	errs.Check(in.TotalSupply == nil || validate.MaxLength(*in.TotalSupply, 120), "total_supply", "must be at most 120 characters")

	return &model.Airdrop{
		ProjectName:  f.projectName,
		TokenSymbol:  f.tokenSymbol,
		Blockchain:   f.blockchain,
		Description:  f.description,
		Requirements: strings.TrimSpace(in.Requirements),
		RewardAmount: trimmed(in.RewardAmount),
		TotalSupply:  trimmed(in.TotalSupply),
		WebsiteURL:   f.websiteURL,
		LogoKey:      trimmed(in.LogoKey),
		StartDate:    f.start,
		EndDate:      f.end,
		Status:       enums.TokenSaleStatusPending,
	}
}

func buildPresale(in StoreInput, errs validate.Errors) *model.Presale {
	f := checkTokenFields(in, errs)

	var price, soft, hard float64
	if in.TokenPrice == nil || *in.TokenPrice <= 0 {
		errs.Add("token_price", "must be greater than 0")
	} else {
		price = *in.TokenPrice
	}
	if in.SoftCap == nil || *in.SoftCap < 0 {
		errs.Add("soft_cap", "must be 0 or greater")
	} else {
		soft = *in.SoftCap
	}
	if in.HardCap == nil || *in.HardCap < soft {
		errs.Add("hard_cap", "must be greater than or equal to soft_cap")
	} else {
		hard = *in.HardCap
	}

	return &model.Presale{
		ProjectName: f.projectName,
		TokenSymbol: f.tokenSymbol,
		Blockchain:  f.blockchain,
		Description: f.description,
		TokenPrice:  price,
		SoftCap:     soft,
		HardCap:     hard,
		WebsiteURL:  f.websiteURL,
		LogoKey:     trimmed(in.LogoKey),
		StartDate:   f.start,
		EndDate:     f.end,
		Status:      enums.TokenSaleStatusPending,
	}
}

func buildEvent(in StoreInput, errs validate.Errors) *model.Event {
	description := strings.TrimSpace(in.Description)
	location := strings.TrimSpace(in.Location)
	eventType := enums.EventType(strings.ToLower(strings.TrimSpace(in.EventType)))

	errs.Check(validate.LengthBetween(description, minDescriptionLength, 0), "description", fmt.Sprintf("must be at least %d characters", minDescriptionLength))
	errs.Check(eventType.Valid(), "event_type", "must be one of conference, meetup, webinar, hackathon, ama")
	start, end := checkDateRange(in, errs)
	if in.IsVirtual {
		errs.Check(in.URL != nil && validate.HTTPURL(*in.URL), "url", "is required for virtual events")
	} else {
		errs.Check(validate.LengthBetween(location, 2, 255), "location", "is required unless the event is virtual")
		errs.Check(in.URL == nil || strings.TrimSpace(*in.URL) == "" || validate.HTTPURL(*in.URL), "url", "must be an absolute http or https URL")
	}
	checkKey(in.BannerKey, "banner_key", errs)

	return &model.Event{
		Title:       in.Title,
		Description: description,
		EventType:   eventType,
		Location:    location,
		IsVirtual:   in.IsVirtual,
		URL:         trimmed(in.URL),
		BannerKey:   trimmed(in.BannerKey),
		StartDate:   start,
		EndDate:     end,
		Status:      enums.EventStatusPending,
	}
}

func buildArticle(in StoreInput, errs validate.Errors) *model.Article {
	content := strings.TrimSpace(in.Content)
	excerpt := strings.TrimSpace(in.Excerpt)
	category := strings.TrimSpace(in.Category)

	errs.Check(validate.LengthBetween(content, minArticleLength, 0), "content", fmt.Sprintf("must be at least %d characters", minArticleLength))
	errs.Check(validate.MaxLength(excerpt, maxExcerptLength), "excerpt", fmt.Sprintf("must be at most %d characters", maxExcerptLength))
	errs.Check(validate.MaxLength(category, 60), "category", "must be at most 60 characters")
	errs.Check(in.SourceURL == nil || strings.TrimSpace(*in.SourceURL) == "" || validate.HTTPURL(*in.SourceURL), "source_url", "must be an absolute http or https URL")
	if in.Type == enums.SubmissionTypeSponsoredContent {
		errs.Check(in.SponsorName != nil && validate.LengthBetween(*in.SponsorName, 2, 120), "sponsor_name", "is required for sponsored content")
	}
	checkKey(in.CoverImageKey, "cover_image_key", errs)

	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && len(tags) < maxTags {
			tags = append(tags, tag)
		}
	}

	return &model.Article{
		Title:         in.Title,
		Excerpt:       excerpt,
		Content:       content,
		ContentType:   enums.ArticleContentType(in.Type),
		Status:        enums.ArticleStatusPending,
		Category:      category,
		Tags:          tags,
		CoverImageKey: trimmed(in.CoverImageKey),
		SourceURL:     trimmed(in.SourceURL),
		SponsorName:   trimmed(in.SponsorName),
	}
}

func checkDateRange(in StoreInput, errs validate.Errors) (time.Time, time.Time) {
	start, _, okStart := parseDate(in.StartDate)
	end, endDateOnly, okEnd := parseDate(in.EndDate)
	if okEnd && endDateOnly {
		end = end.Add(24*time.Hour - time.Second)
	}
	errs.Check(okStart, "start_date", "must be a date (YYYY-MM-DD or RFC 3339)")
	errs.Check(okEnd, "end_date", "must be a date (YYYY-MM-DD or RFC 3339)")
	if okStart && okEnd {
		errs.Check(!end.Before(start), "end_date", "must not be before start_date")
	}
	return start, end
}

func checkKey(key *string, field string, errs validate.Errors) {
	if key == nil {
		return
	}
	errs.Check(validate.MaxLength(strings.TrimSpace(*key), 512), field, "must be at most 512 characters")
}

// parseDate also reports whether value carried no time of day.
func parseDate(value string) (time.Time, bool, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), layout == dateOnlyLayout, true
		}
	}
	return time.Time{}, false, false
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
