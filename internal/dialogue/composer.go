package dialogue

import (
	"fmt"
	"strings"
)

// Composer renders a classified topic and its knowledge value into reply
// text. Compose never fails for any input; the worst case is the canned
// fallback phrase. Channel adapters rely on that guarantee.
type Composer struct {
	responses Responses
}

// NewComposer creates a composer with the business type's phrase table.
func NewComposer(businessType string) *Composer {
	return &Composer{responses: ResponsesFor(businessType)}
}

// menuSection maps a sub-category cue in the raw text to a menu key. Ordered:
// "main" is checked together with "entree" the way callers phrase it.
var menuSections = []struct {
	cues []string
	key  string
	name string
}{
	{cues: []string{"appetizer"}, key: "appetizers", name: "appetizers"},
	{cues: []string{"main", "entree"}, key: "main_courses", name: "main courses"},
	{cues: []string{"dessert"}, key: "desserts", name: "desserts"},
}

// Compose renders the reply for a topic. value is the knowledge store's
// answer for the topic; rawText is the original utterance, consulted for
// menu sub-category cues and second-tier keyword responses.
func (c *Composer) Compose(topic Topic, value any, rawText string) string {
	lower := strings.ToLower(rawText)

	switch topic {
	case TopicMenu:
		return c.composeMenu(value, lower)
	case TopicHours:
		return fmt.Sprintf("We are open %v.", stringify(value))
	case TopicLocation:
		return fmt.Sprintf("We are located at %v.", stringify(value))
	case TopicContact:
		return fmt.Sprintf("You can reach us at %v.", stringify(value))
	case TopicProperties:
		count := sequenceLen(value)
		if count == 0 {
			return "We don't have any properties available at the moment."
		}
		return fmt.Sprintf("We have %d properties available. What type of property are you looking for?", count)
	case TopicAgents:
		count := sequenceLen(value)
		if count == 0 {
			return "We don't have any agents available at the moment."
		}
		return fmt.Sprintf("We have %d agents available to help you. Would you like to speak with one of them?", count)
	default:
		return c.composeUnknown(lower)
	}
}

func (c *Composer) composeMenu(value any, lower string) string {
	menu, ok := value.(map[string]any)
	if !ok {
		// Document was updated with a non-map menu; fall back to the prompt
		// or render a plain string answer directly.
		if s, isString := value.(string); isString && s != "" {
			return s
		}
		return c.responses.phrase("menu_inquiry")
	}

	for _, section := range menuSections {
		for _, cue := range section.cues {
			if strings.Contains(lower, cue) {
				names := itemNames(menu[section.key])
				if len(names) == 0 {
					return c.responses.phrase("menu_inquiry")
				}
				return fmt.Sprintf("Our %s include: %s. What would you like to know more about?",
					section.name, strings.Join(names, ", "))
			}
		}
	}
	return c.responses.phrase("menu_inquiry")
}

// secondTierRules backs the unknown-topic branch: order-independent word
// tests against a canned-phrase key, checked in fixed precedence.
var secondTierRules = []struct {
	keywords []string
	phrase   string
}{
	{keywords: []string{"menu", "food", "eat", "order"}, phrase: "menu_inquiry"},
	{keywords: []string{"property", "house", "apartment", "real estate"}, phrase: "property_inquiry"},
	{keywords: []string{"bye", "goodbye", "thank you", "thanks"}, phrase: "goodbye"},
	{keywords: []string{"order", "place", "want", "would like"}, phrase: "order_confirmation"},
	{keywords: []string{"schedule", "viewing", "appointment", "meet"}, phrase: "viewing_scheduling"},
}

func (c *Composer) composeUnknown(lower string) string {
	for _, rule := range secondTierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return c.responses.phrase(rule.phrase)
			}
		}
	}
	return c.responses.phrase("fallback")
}

// Greeting returns the opening phrase for a new conversation.
func (c *Composer) Greeting() string {
	return c.responses.phrase("greeting")
}

// itemNames pulls the "name" field out of a sequence of item maps, skipping
// anything malformed.
func itemNames(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := m["name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

func sequenceLen(value any) int {
	if items, ok := value.([]any); ok {
		return len(items)
	}
	return 0
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
