// Package view renders the HTML fragments pushed to the browser over SSE.
package view

//go:generate templ generate

import (
	"fmt"

	"github.com/msomdec/askhub/internal/policy"
)

// Element IDs the front-end reserves for patched fragments.
const (
	QuestionQuotaID = "question-quota"
	PostQuotaID     = "post-quota"
	UploadWindowID  = "upload-window"
)

func badgeClass(u policy.Usage) string {
	switch {
	case u.Unlimited():
		return "quota-badge quota-unlimited"
	case u.Exhausted():
		return "quota-badge quota-exhausted"
	}
	return "quota-badge"
}

func badgeText(u policy.Usage) string {
	switch {
	case u.Unlimited():
		return fmt.Sprintf("%d used today, no daily limit", u.Used)
	case u.Exhausted():
		return fmt.Sprintf("Daily limit reached (%d of %d)", u.Used, u.Limit)
	}
	return fmt.Sprintf("%d of %d used today, %d left", u.Used, u.Limit, u.Remaining())
}

func bannerClass(open bool) string {
	if open {
		return "window-banner window-open"
	}
	return "window-banner window-closed"
}

func bannerText(open bool, window string) string {
	if open {
		return "Open now until the window closes (" + window + ")"
	}
	return "Available between " + window
}
