package moderation

import (
	"sort"
	"strings"

	tginfra "github.com/coinmews/coinmews/internal/infra/telegram"
)

const defaultRejectReason = "OTHER"

type RejectReason struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Feedback string `json:"feedback"`
}

var rejectReasons = map[string]RejectReason{
	"SCAM_SUSPECTED": {
		Label:    "Scam",
		Feedback: "The project shows signs of a scam and cannot be listed.",
	},
	"DUPLICATE": {
		Label:    "Duplicate",
		Feedback: "This project is already listed or was submitted before.",
	},
	"INCOMPLETE": {
		Label:    "Incomplete",
		Feedback: "Required details are missing. Add links, dates and a description, then submit again.",
	},
	"OFF_TOPIC": {
		Label:    "Off topic",
		Feedback: "The submission is not related to crypto projects or events.",
	},
	"SPAM": {
		Label:    "Spam",
		Feedback: "The submission looks like spam or unsolicited advertising.",
	},
	defaultRejectReason: {
		Label:    "Other",
		Feedback: "The submission does not meet the listing guidelines.",
	},
}

// RejectReasons lists the canned rejections sorted by code, with OTHER last.
func RejectReasons() []RejectReason {
	codes := make([]string, 0, len(rejectReasons))
	for code := range rejectReasons {
		if code != defaultRejectReason {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	codes = append(codes, defaultRejectReason)

	items := make([]RejectReason, 0, len(codes))
	for _, code := range codes {
		reason := rejectReasons[code]
		reason.Code = code
		items = append(items, reason)
	}
	return items
}

// RejectFeedback resolves a reason code to moderator feedback; unknown codes fall back to OTHER.
func RejectFeedback(code string) string {
	reason, ok := rejectReasons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		reason = rejectReasons[defaultRejectReason]
	}
	return reason.Feedback
}

func rejectOptions() []tginfra.RejectOption {
	reasons := RejectReasons()
	options := make([]tginfra.RejectOption, 0, len(reasons))
	for _, reason := range reasons {
		options = append(options, tginfra.RejectOption{Code: reason.Code, Label: reason.Label})
	}
	return options
}
