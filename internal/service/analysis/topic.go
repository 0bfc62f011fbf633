package analysis

import "strings"

// TopicTransition classifies how one topic followed another.
type TopicTransition string

const (
	TransitionContinuation TopicTransition = "continuation"
	TransitionNatural      TopicTransition = "natural"
	TransitionAbrupt       TopicTransition = "abrupt"
	TransitionSmooth       TopicTransition = "smooth"
)

// TopicAnalysis is the tracker's verdict on a single message.
type TopicAnalysis struct {
	Name          string
	Category      string
	Confidence    float64
	IsNew         bool
	Transition    TopicTransition
	InterestMatch bool
	Priority      string // "normal" or "high"
}

// GeneralTopic is used for messages with no taxonomy hits.
const GeneralTopic = "general"

// Coarse groupings over the taxonomy, stored alongside the topic name.
const (
	CategoryProfessional = "professional"
	CategoryLeisure      = "leisure"
	CategoryLifestyle    = "lifestyle"
	CategoryPersonal     = "personal"
)

type topicEntry struct {
	name     string
	category string
	keywords []string
}

// topicTaxonomy is scored in declaration order; order also breaks ties.
var topicTaxonomy = []topicEntry{
	{"work", CategoryProfessional, []string{"work", "job", "boss", "office", "meeting", "project", "deadline", "colleague", "coworker", "promotion", "salary", "interview"}},
	{"entertainment", CategoryLeisure, []string{"movie", "movies", "film", "show", "shows", "series", "episode", "season", "watch", "watching", "watched", "netflix", "music", "song", "band", "concert", "game", "gaming", "book", "character", "characters", "actor", "tv"}},
	{"food", CategoryLifestyle, []string{"food", "eat", "eating", "dinner", "lunch", "breakfast", "cook", "cooking", "recipe", "restaurant", "pizza", "coffee", "hungry", "delicious"}},
	{"travel", CategoryLeisure, []string{"travel", "traveling", "trip", "vacation", "flight", "hotel", "visit", "country", "city", "beach", "abroad", "passport", "explore"}},
	{"health", CategoryLifestyle, []string{"health", "doctor", "sick", "gym", "workout", "exercise", "sleep", "diet", "therapy", "medicine", "headache", "running"}},
	{"family", CategoryPersonal, []string{"family", "mom", "dad", "mother", "father", "sister", "brother", "parents", "grandma", "grandpa", "kids", "son", "daughter"}},
	{"relationships", CategoryPersonal, []string{"relationship", "boyfriend", "girlfriend", "partner", "date", "dating", "marriage", "wedding", "breakup", "crush", "love life"}},
	{"hobbies", CategoryLeisure, []string{"hobby", "hobbies", "paint", "painting", "draw", "drawing", "photography", "garden", "gardening", "hiking", "fishing", "knitting", "collect"}},
	{"daily_life", CategoryLifestyle, []string{"today", "tomorrow", "yesterday", "morning", "evening", "weekend", "chores", "errands", "shopping", "weather", "commute"}},
}

// topicAdjacency lists transitions that feel natural in conversation.
var topicAdjacency = map[string][]string{
	"work":          {"daily_life", "health", "relationships"},
	"entertainment": {"hobbies", "daily_life", "food"},
	"food":          {"health", "travel", "daily_life"},
	"travel":        {"food", "entertainment", "family"},
	"health":        {"food", "daily_life", "work"},
	"family":        {"relationships", "daily_life", "travel"},
	"relationships": {"family", "daily_life", "work"},
	"hobbies":       {"entertainment", "health", "daily_life"},
	"daily_life":    {"work", "food", "entertainment"},
}

var abruptMarkers = []string{
	"anyway", "random question", "unrelated", "changing the subject",
	"completely different", "off topic",
}

// interestAliases maps user-declared interest phrasings onto taxonomy
// categories.
var interestAliases = map[string]string{
	"tv shows":    "entertainment",
	"tv":          "entertainment",
	"movies":      "entertainment",
	"films":       "entertainment",
	"music":       "entertainment",
	"gaming":      "entertainment",
	"video games": "entertainment",
	"books":       "entertainment",
	"reading":     "entertainment",
	"cooking":     "food",
	"baking":      "food",
	"traveling":   "travel",
	"travel":      "travel",
	"fitness":     "health",
	"sports":      "health",
	"yoga":        "health",
	"photography": "hobbies",
	"painting":    "hobbies",
	"hiking":      "hobbies",
	"gardening":   "hobbies",
	"career":      "work",
}

// DetectTopic scores the taxonomy against the message and relates the winner
// to the most recent topic of the conversation. userInterests, when given,
// upgrade priority for topics the user declared they care about.
func DetectTopic(message string, recentTopics []string, userInterests []string) TopicAnalysis {
	lower := strings.ToLower(message)
	words := tokenize(lower)

	var best topicEntry
	bestHits := 0
	for _, entry := range topicTaxonomy {
		hits := 0
		for _, kw := range entry.keywords {
			if keywordHit(lower, words, kw) {
				hits++
			}
		}
		// Strictly greater: declaration order wins ties.
		if hits > bestHits {
			bestHits = hits
			best = entry
		}
	}

	if bestHits == 0 {
		return TopicAnalysis{
			Name:       GeneralTopic,
			Category:   GeneralTopic,
			Confidence: 0.2,
			IsNew:      false,
			Transition: classifyTransition(GeneralTopic, recentTopics, lower),
			Priority:   "normal",
		}
	}

	confidence := 0.5 + 0.1*float64(bestHits)
	if confidence > 0.95 {
		confidence = 0.95
	}

	previous := ""
	if len(recentTopics) > 0 {
		previous = recentTopics[0]
	}

	analysis := TopicAnalysis{
		Name:       best.name,
		Category:   best.category,
		Confidence: confidence,
		IsNew:      best.name != previous,
		Transition: classifyTransition(best.name, recentTopics, lower),
		Priority:   "normal",
	}

	for _, interest := range userInterests {
		if interestAliases[strings.ToLower(strings.TrimSpace(interest))] == best.name {
			analysis.InterestMatch = true
			analysis.Priority = "high"
			break
		}
	}

	return analysis
}

func classifyTransition(topic string, recentTopics []string, lower string) TopicTransition {
	previous := ""
	if len(recentTopics) > 0 {
		previous = recentTopics[0]
	}

	if topic == previous {
		return TransitionContinuation
	}
	if containsAny(lower, abruptMarkers) {
		return TransitionAbrupt
	}
	for _, adjacent := range topicAdjacency[previous] {
		if adjacent == topic {
			return TransitionNatural
		}
	}
	return TransitionSmooth
}

func tokenize(lower string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '\'')
	}) {
		words[w] = true
	}
	return words
}

func keywordHit(lower string, words map[string]bool, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(lower, kw)
	}
	return words[kw]
}
