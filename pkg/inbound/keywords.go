package inbound

import "strings"

// Keyword matching is substring-based on the uppercased body, so "YES PLEASE"
// and "yes!" both count. Stop keywords always win over positive ones.
var (
	stopKeywords     = []string{"STOP", "UNSUBSCRIBE", "OPT OUT", "OPTOUT"}
	positiveKeywords = []string{"YES", "INTERESTED", "START", "APPLY"}
)

// Intent classifies the sender's reply.
type Intent int

const (
	IntentNone Intent = iota
	IntentPositive
	IntentStop
)

// ClassifyReply inspects the message body for stop and positive keywords.
func ClassifyReply(body string) Intent {
	upper := strings.ToUpper(body)

	for _, keyword := range stopKeywords {
		if strings.Contains(upper, keyword) {
			return IntentStop
		}
	}

	for _, keyword := range positiveKeywords {
		if strings.Contains(upper, keyword) {
			return IntentPositive
		}
	}

	return IntentNone
}
