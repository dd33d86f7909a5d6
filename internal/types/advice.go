package types

import "fmt"

// AdviceRequest is the context sent to the advice collaborator for one evaluation
type AdviceRequest struct {
	ChosenItems          []Item             `json:"chosenItems"`
	LastActions          []HistoryEntry     `json:"lastActions"`
	AvailableItemContext map[string]Payload `json:"availableItemContext"`
	TargetRole           string             `json:"targetRole"`
	Focus                QueueItem          `json:"focus"`
}

// Advice is one of the two accepted collaborator response shapes.
type Advice interface {
	// AlertMessage renders the advice as the text shown in an Alert.
	AlertMessage() string
	isAdvice()
}

// Suggestion actions
const (
	SuggestAdd    = "add"
	SuggestRemove = "remove"
	SuggestModify = "modify"
)

// Suggestion is the terse response shape
type Suggestion struct {
	Action string `json:"action"`
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// Coaching is the conversational response shape
type Coaching struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
	Reasoning  string `json:"reasoning"`
}

func (*Suggestion) isAdvice() {}
func (*Coaching) isAdvice()   {}

// AlertMessage renders the suggestion as a single sentence.
func (s *Suggestion) AlertMessage() string {
	verb := "Consider revising"
	switch s.Action {
	case SuggestAdd:
		verb = "Consider adding"
	case SuggestRemove:
		verb = "Consider removing"
	}
	return fmt.Sprintf("%s %s: %s", verb, s.Item, s.Reason)
}

// AlertMessage renders the coaching message followed by its concrete suggestion.
func (c *Coaching) AlertMessage() string {
	if c.Suggestion == "" {
		return c.Message
	}
	return fmt.Sprintf("%s\n\nSuggestion: %s", c.Message, c.Suggestion)
}
