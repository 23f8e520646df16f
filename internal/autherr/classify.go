package autherr

import "strings"

// rule maps a case-insensitive substring of vendor error text to a Kind.
// Rules are evaluated in order; the first match wins. EmailNotConfirmed must
// stay ahead of the generic credential rules because some backends phrase it
// as another "invalid login" variant.
type rule struct {
	substr string
	kind   Kind
}

var rules = []rule{
	{"email not confirmed", KindEmailNotConfirmed},
	{"email_not_confirmed", KindEmailNotConfirmed},
	{"confirm your email", KindEmailNotConfirmed},
	{"rate limit", KindRateLimited},
	{"too many requests", KindRateLimited},
	{"security purposes", KindRateLimited},
	{"already registered", KindAlreadyRegistered},
	{"already exists", KindAlreadyRegistered},
	{"user not found", KindEmailNotFound},
	{"email not found", KindEmailNotFound},
	{"invalid login credentials", KindInvalidCredentials},
	{"invalid email or password", KindInvalidCredentials},
	{"invalid credentials", KindInvalidCredentials},
	{"invalid password", KindInvalidCredentials},
	{"invalid otp", KindInvalidCredentials},
	{"token has expired or is invalid", KindInvalidCredentials},
	{"invalid email", KindInvalidEmailFormat},
	{"invalid format", KindInvalidEmailFormat},
	{"password should be", KindWeakPassword},
	{"weak password", KindWeakPassword},
	{"network", KindNetwork},
	{"connection refused", KindNetwork},
	{"no such host", KindNetwork},
	{"timeout", KindNetwork},
	{"deadline exceeded", KindNetwork},
}

// Classify maps raw vendor error text onto the closed taxonomy.
func Classify(message string) Kind {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if strings.Contains(lower, r.substr) {
			return r.kind
		}
	}
	return KindUnknown
}

// FromVendor wraps raw vendor error text as a classified error, preserving
// the original message.
func FromVendor(message string) *Error {
	return &Error{Kind: Classify(message), Message: message}
}
