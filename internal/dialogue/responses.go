package dialogue

// Responses is the canned-phrase table consulted when no topic matched.
type Responses map[string]string

var restaurantResponses = Responses{
	"greeting":           "Welcome to our restaurant! How can I help you today?",
	"menu_inquiry":       "Our menu includes appetizers, main courses, and desserts. What would you like to know more about?",
	"order_confirmation": "I've noted your order. Is there anything else you'd like to add?",
	"goodbye":            "Thank you for your order! We look forward to serving you.",
	"fallback":           "I'm not sure I understood. Could you please repeat that?",
}

var realEstateResponses = Responses{
	"greeting":           "Welcome to our real estate agency! How can I assist you today?",
	"property_inquiry":   "We have several properties available. What type of property are you looking for?",
	"viewing_scheduling": "I can help you schedule a viewing. What day and time works for you?",
	"goodbye":            "Thank you for your interest! We'll be in touch soon.",
	"fallback":           "I'm not sure I understood. Could you please repeat that?",
}

// ResponsesFor returns the canned-phrase table for a business type. Unknown
// types get the restaurant table, mirroring the knowledge defaults.
func ResponsesFor(businessType string) Responses {
	switch businessType {
	case "real_estate":
		return realEstateResponses
	default:
		return restaurantResponses
	}
}

// phrase looks up a canned response, degrading to the fallback phrase so the
// composer stays total even when a table lacks the key.
func (r Responses) phrase(key string) string {
	if text, ok := r[key]; ok {
		return text
	}
	return r["fallback"]
}
