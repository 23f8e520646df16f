package autherr

import "strings"

const genericMessage = "An unexpected error occurred. Please try again."

// Format renders a classified error as the human-readable string the UI
// shows. It is a pure function of the error.
//
// EmailNotConfirmed deliberately maps to the empty string: navigation alone
// routes the user to the verification screen, no inline text is shown.
func Format(err error) string {
	if err == nil {
		return ""
	}
	ae := AsError(err)
	if ae.Kind == KindUnknown {
		// Unclassified errors from lower layers still get the substring pass.
		ae = FromVendor(ae.Message)
	}
	switch ae.Kind {
	case KindEmailNotConfirmed:
		return ""
	case KindNetwork:
		return "Network error. Please check your connection and try again."
	case KindInvalidCredentials:
		return "Invalid email or password."
	case KindEmailNotFound:
		return "No account found with this email address."
	case KindAlreadyRegistered:
		return "This email is already registered. Please sign in instead."
	case KindInvalidEmailFormat:
		return "Please enter a valid email address."
	case KindWeakPassword:
		return "Password is too weak. Use at least 8 characters with uppercase, lowercase, and a number."
	case KindRateLimited:
		// Backend wait-time text ("try again in 45s") is kept verbatim.
		if strings.TrimSpace(ae.Message) != "" {
			return ae.Message
		}
		return "Too many attempts. Please wait a moment and try again."
	default:
		if strings.TrimSpace(ae.Message) == "" {
			return genericMessage
		}
		return ae.Message
	}
}
