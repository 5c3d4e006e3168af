package parse

import (
	"errors"

	"github.com/alnah/go-routinepdf/internal/quota"
)

// Sentinel errors for parse requests.
var (
	// Input errors, reported before any network call.
	ErrEmptyInput    = errors.New("input text is empty")
	ErrInputTooLong  = errors.New("input text is too long")
	ErrMissingAPIKey = errors.New("parse API key is not configured")

	// Upstream errors.
	ErrRateLimited       = errors.New("parse service rate limit reached")
	ErrPaymentRequired   = errors.New("parse service credits exhausted")
	ErrUpstream          = errors.New("parse service failed")
	ErrMalformedResponse = errors.New("parse service returned an invalid response")
)

// UserMessage returns the Persian message shown to end users for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return "لطفاً متن برنامه را وارد کنید."
	case errors.Is(err, ErrInputTooLong):
		return "متن برنامه بیش از حد طولانی است."
	case errors.Is(err, quota.ErrExceeded):
		return "سقف استفاده روزانه به پایان رسیده است. فردا دوباره تلاش کنید."
	case errors.Is(err, ErrRateLimited):
		return "محدودیت درخواست. لطفاً کمی صبر کنید."
	case errors.Is(err, ErrPaymentRequired):
		return "اعتبار کافی نیست."
	case errors.Is(err, ErrMalformedResponse):
		return "پاسخ نامعتبر از هوش مصنوعی"
	default:
		return "خطا در سرویس هوش مصنوعی"
	}
}
