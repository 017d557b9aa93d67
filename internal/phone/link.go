package phone

import (
	"net/url"
	"regexp"
	"strings"
)

// LinkKind classifies a messaging-app deep link or URL found in a phone-like
// field.
type LinkKind int

const (
	// LinkNone: the text is not a link at all.
	LinkNone LinkKind = iota
	// LinkResource: a valid non-numeric resource (message page, catalog,
	// channel, QR code, group invite). No number to validate.
	LinkResource
	// LinkNumber: a link with an embedded number, extracted for validation.
	LinkNumber
	// LinkInvalid: a link that carries neither a number nor a recognized
	// resource. Unfixable.
	LinkInvalid
)

// LinkResolution is the outcome of ResolveLink. Number is set only for
// LinkNumber.
type LinkResolution struct {
	Kind   LinkKind
	Number string
}

var digitsOnly = regexp.MustCompile(`^[0-9]{5,15}$`)

// ResolveLink detects messaging deep links and URLs in a field value. Known
// resource paths are valid content in their own right; number-bearing links
// yield the embedded number for normal validation.
func ResolveLink(text string) LinkResolution {
	t := strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(t, "tel:"); ok {
		return LinkResolution{Kind: LinkNumber, Number: strings.TrimSpace(rest)}
	}

	if !looksLikeLink(t) {
		return LinkResolution{Kind: LinkNone}
	}

	raw := t
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return LinkResolution{Kind: LinkInvalid}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.EscapedPath(), "/")
	segments := strings.Split(path, "/")

	switch host {
	case "wa.me":
		switch segments[0] {
		case "message", "qr", "c":
			return LinkResolution{Kind: LinkResource}
		}
		if digits := strings.TrimPrefix(segments[0], "+"); digitsOnly.MatchString(digits) {
			return LinkResolution{Kind: LinkNumber, Number: "+" + digits}
		}
		return LinkResolution{Kind: LinkInvalid}

	case "chat.whatsapp.com":
		// Group invite codes are opaque but valid resources.
		if path != "" {
			return LinkResolution{Kind: LinkResource}
		}
		return LinkResolution{Kind: LinkInvalid}

	case "whatsapp.com", "api.whatsapp.com", "web.whatsapp.com":
		switch segments[0] {
		case "channel", "catalog", "message", "qr":
			return LinkResolution{Kind: LinkResource}
		case "send":
			if digits := strings.TrimPrefix(u.Query().Get("phone"), "+"); digitsOnly.MatchString(digits) {
				return LinkResolution{Kind: LinkNumber, Number: "+" + digits}
			}
		}
		return LinkResolution{Kind: LinkInvalid}
	}

	return LinkResolution{Kind: LinkInvalid}
}

func looksLikeLink(t string) bool {
	if strings.Contains(t, "://") {
		return true
	}
	lower := strings.ToLower(t)
	for _, prefix := range []string{"wa.me/", "www.", "whatsapp.com/", "api.whatsapp.com/", "chat.whatsapp.com/"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
