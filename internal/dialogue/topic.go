package dialogue

import "strings"

// Topic is the closed-set intent classification for an utterance.
type Topic string

const (
	TopicMenu       Topic = "menu"
	TopicHours      Topic = "hours"
	TopicLocation   Topic = "location"
	TopicContact    Topic = "contact"
	TopicProperties Topic = "properties"
	TopicAgents     Topic = "agents"
	TopicUnknown    Topic = "unknown"
)

type intentRule struct {
	keywords []string
	topic    Topic
}

// intentRules is an ordered rule table: first match wins. Some tokens could
// plausibly satisfy several groups, so precedence is fixed here rather than
// scored. Matching is substring containment without word boundaries ("eat"
// matches inside "eaten") - a deliberate simplification.
var intentRules = []intentRule{
	{keywords: []string{"menu", "food", "eat", "appetizer", "entree", "dessert"}, topic: TopicMenu},
	{keywords: []string{"hours", "open", "close"}, topic: TopicHours},
	{keywords: []string{"location", "address", "where"}, topic: TopicLocation},
	{keywords: []string{"contact", "phone", "call"}, topic: TopicContact},
	{keywords: []string{"property", "house", "apartment"}, topic: TopicProperties},
	{keywords: []string{"agent", "realtor", "broker"}, topic: TopicAgents},
}

// Classify maps free text to a topic. Total: any input yields a topic,
// with TopicUnknown as the catch-all.
func Classify(text string) Topic {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.topic
			}
		}
	}
	return TopicUnknown
}

// ClassifyKey returns the classification as a document key string. This is
// the form the knowledge HTTP handler injects.
func ClassifyKey(text string) string {
	return string(Classify(text))
}
