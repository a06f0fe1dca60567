package sms

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var phoneDigitsRe = regexp.MustCompile(`\d+`)

// ValidateTwilioSignature validates that a request came from Twilio.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	payload := buildSignaturePayload(webhookURL, r.PostForm)
	return signature == computeSignature(payload, authToken)
}

// buildSignaturePayload concatenates the webhook URL with the POST params
// sorted by key, Twilio's documented signing scheme.
func buildSignaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// NormalizeE164 reduces a phone number to + followed by its digits.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := strings.Join(phoneDigitsRe.FindAllString(value, -1), "")
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// BuildAbsoluteURL reconstructs the externally visible URL of a request,
// honoring proxy forwarding headers. Needed because Twilio signs against
// the URL it dialed, not the one the backend sees.
func BuildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}

type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// MessageTwiML renders an SMS reply document. Marshaling handles escaping,
// so reply text containing markup-significant characters stays valid XML.
func MessageTwiML(body string) string {
	doc, err := xml.Marshal(messagingResponse{Message: body})
	if err != nil {
		// A string field cannot fail to marshal.
		panic(err)
	}
	return xml.Header + string(doc)
}
