package rules

import (
	"strings"
	"time"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

var submissionStatusByNative = map[enums.ModelType]map[string]enums.SubmissionStatus{
	enums.ModelTypeAirdrop: {
		string(enums.TokenSaleStatusUpcoming): enums.SubmissionStatusApproved,
		string(enums.TokenSaleStatusOngoing):  enums.SubmissionStatusApproved,
		string(enums.TokenSaleStatusEnded):    enums.SubmissionStatusApproved,
		string(enums.TokenSaleStatusRejected): enums.SubmissionStatusRejected,
	},
	enums.ModelTypePresale: {
		string(enums.TokenSaleStatusUpcoming): enums.SubmissionStatusApproved,
		string(enums.TokenSaleStatusOngoing):  enums.SubmissionStatusApproved,
		string(enums.TokenSaleStatusEnded):    enums.SubmissionStatusApproved,
		string(enums.TokenSaleStatusRejected): enums.SubmissionStatusRejected,
	},
	enums.ModelTypeEvent: {
		string(enums.EventStatusUpcoming):  enums.SubmissionStatusApproved,
		string(enums.EventStatusOngoing):   enums.SubmissionStatusApproved,
		string(enums.EventStatusCompleted): enums.SubmissionStatusApproved,
		string(enums.EventStatusCancelled): enums.SubmissionStatusRejected,
	},
	enums.ModelTypeArticle: {
		string(enums.ArticleStatusPublished): enums.SubmissionStatusApproved,
		string(enums.ArticleStatusArchived):  enums.SubmissionStatusApproved,
		string(enums.ArticleStatusReview):    enums.SubmissionStatusReviewing,
		string(enums.ArticleStatusRejected):  enums.SubmissionStatusRejected,
	},
}

var nativeStatuses = map[enums.ModelType][]string{
	enums.ModelTypeAirdrop: tokenSaleStatuses(),
	enums.ModelTypePresale: tokenSaleStatuses(),
	enums.ModelTypeEvent: {
		string(enums.EventStatusPending),
		string(enums.EventStatusUpcoming),
		string(enums.EventStatusOngoing),
		string(enums.EventStatusCompleted),
		string(enums.EventStatusCancelled),
	},
	enums.ModelTypeArticle: {
		string(enums.ArticleStatusDraft),
		string(enums.ArticleStatusPending),
		string(enums.ArticleStatusReview),
		string(enums.ArticleStatusPublished),
		string(enums.ArticleStatusRejected),
		string(enums.ArticleStatusArchived),
	},
}

func tokenSaleStatuses() []string {
	return []string{
		string(enums.TokenSaleStatusPending),
		string(enums.TokenSaleStatusUpcoming),
		string(enums.TokenSaleStatusOngoing),
		string(enums.TokenSaleStatusEnded),
		string(enums.TokenSaleStatusRejected),
	}
}

// SubmissionStatusFor maps a concrete model's native status onto the moderation queue vocabulary.
// Unknown statuses fall back to pending.
func SubmissionStatusFor(modelType enums.ModelType, native string) enums.SubmissionStatus {
	byNative, ok := submissionStatusByNative[modelType]
	if !ok {
		return enums.SubmissionStatusPending
	}
	status, ok := byNative[strings.ToLower(strings.TrimSpace(native))]
	if !ok {
		return enums.SubmissionStatusPending
	}
	return status
}

func ValidNativeStatus(modelType enums.ModelType, native string) bool {
	for _, status := range nativeStatuses[modelType] {
		if status == native {
			return true
		}
	}
	return false
}

func NativeStatuses(modelType enums.ModelType) []string {
	return append([]string(nil), nativeStatuses[modelType]...)
}

func ModelTypeFor(submissionType enums.SubmissionType) (enums.ModelType, bool) {
	switch submissionType {
	case enums.SubmissionTypeAirdrop:
		return enums.ModelTypeAirdrop, true
	case enums.SubmissionTypePresale:
		return enums.ModelTypePresale, true
	case enums.SubmissionTypeEvent:
		return enums.ModelTypeEvent, true
	case enums.SubmissionTypePressRelease, enums.SubmissionTypeGuestPost, enums.SubmissionTypeSponsoredContent:
		return enums.ModelTypeArticle, true
	}
	return "", false
}

// SubmissionTypeFor resolves the queue type of a concrete row. Editorial article types
// (news, blog, analysis) have no submission type and are never queued.
func SubmissionTypeFor(modelType enums.ModelType, contentType string) (enums.SubmissionType, bool) {
	switch modelType {
	case enums.ModelTypeAirdrop:
		return enums.SubmissionTypeAirdrop, true
	case enums.ModelTypePresale:
		return enums.SubmissionTypePresale, true
	case enums.ModelTypeEvent:
		return enums.SubmissionTypeEvent, true
	case enums.ModelTypeArticle:
		return SubmissionTypeForArticle(enums.ArticleContentType(contentType))
	}
	return "", false
}

func SubmissionTypeForArticle(contentType enums.ArticleContentType) (enums.SubmissionType, bool) {
	t := enums.SubmissionType(contentType)
	if !t.IsArticle() {
		return "", false
	}
	return t, true
}

func PendingStatusFor(modelType enums.ModelType) string {
	if modelType == enums.ModelTypeArticle {
		return string(enums.ArticleStatusPending)
	}
	return "pending"
}

// ReviewingStatusFor returns the native status a model takes while its submission is under review.
// Dated models have no such state and stay pending.
func ReviewingStatusFor(modelType enums.ModelType) string {
	if modelType == enums.ModelTypeArticle {
		return string(enums.ArticleStatusReview)
	}
	return PendingStatusFor(modelType)
}

func ApprovedStatusFor(modelType enums.ModelType, start, end, now time.Time) string {
	if modelType == enums.ModelTypeArticle {
		return string(enums.ArticleStatusPublished)
	}
	return TimelineStatus(modelType, start, end, now)
}

func RejectedStatusFor(modelType enums.ModelType) string {
	switch modelType {
	case enums.ModelTypeEvent:
		return string(enums.EventStatusCancelled)
	case enums.ModelTypeArticle:
		return string(enums.ArticleStatusRejected)
	default:
		return string(enums.TokenSaleStatusRejected)
	}
}

// TimelineStatus places an approved dated model on its start/end window.
func TimelineStatus(modelType enums.ModelType, start, end, now time.Time) string {
	switch {
	case now.Before(start):
		return "upcoming"
	case !end.IsZero() && now.After(end):
		if modelType == enums.ModelTypeEvent {
			return string(enums.EventStatusCompleted)
		}
		return string(enums.TokenSaleStatusEnded)
	default:
		return "ongoing"
	}
}

// ResyncStatus decides whether a tracking row must follow its model. A submission under
// review is not pushed back to pending by a model that simply has not been decided yet.
func ResyncStatus(current, mapped enums.SubmissionStatus) (enums.SubmissionStatus, bool) {
	if current == mapped {
		return current, false
	}
	if current == enums.SubmissionStatusReviewing && mapped == enums.SubmissionStatusPending {
		return current, false
	}
	return mapped, true
}
