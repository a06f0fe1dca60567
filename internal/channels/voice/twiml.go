package voice

import (
	"encoding/xml"
	"fmt"
	"net/url"
)

// Gather mirrors the TwiML <Gather> verb attributes used for speech capture.
type gatherVerb struct {
	Input         string `xml:"input,attr"`
	Action        string `xml:"action,attr"`
	Method        string `xml:"method,attr"`
	Language      string `xml:"language,attr"`
	SpeechTimeout string `xml:"speechTimeout,attr"`
}

type voiceResponse struct {
	XMLName xml.Name    `xml:"Response"`
	Say     string      `xml:"Say"`
	Gather  *gatherVerb `xml:"Gather,omitempty"`
}

// SpeechTwiML renders a speak-then-listen turn. The gather posts the
// caller's next utterance back to actionURL.
func SpeechTwiML(say, actionURL string) string {
	doc, err := xml.Marshal(voiceResponse{
		Say: say,
		Gather: &gatherVerb{
			Input:         "speech",
			Action:        actionURL,
			Method:        "POST",
			Language:      "en-US",
			SpeechTimeout: "auto",
		},
	})
	if err != nil {
		panic(err)
	}
	return xml.Header + string(doc)
}

// handleInputURL builds the gather callback carrying the session key.
func handleInputURL(apiPrefix, sessionKey string) string {
	return fmt.Sprintf("%s/voice/handle-input?session_id=%s", apiPrefix, url.QueryEscape(sessionKey))
}
