package types

import "time"

// HistoryAction names the kind of placement change recorded
type HistoryAction string

// History actions
const (
	ActionAdd     HistoryAction = "add"
	ActionRemove  HistoryAction = "remove"
	ActionReorder HistoryAction = "reorder"
	ActionMove    HistoryAction = "move"
)

// HistoryEntry records one placement-changing action. Entries are never mutated.
type HistoryEntry struct {
	Action        HistoryAction `json:"action"`
	ItemID        string        `json:"item_id"`
	ItemKind      ItemKind      `json:"item_kind"`
	FromContainer string        `json:"from_container,omitempty"`
	ToContainer   string        `json:"to_container,omitempty"`
	NewIndex      int           `json:"new_index"`
	Timestamp     time.Time     `json:"timestamp"`
}

// QueueItem is the unit of work entering the advisory pipeline
type QueueItem struct {
	ItemID      string `json:"item_id"`
	CardContent string `json:"card_content"`
}

// Alert is presentation state for one advisory result, keyed by item id
type Alert struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	IsMinimized bool   `json:"is_minimized"`
}

// ChatMessage is one conversational coaching exchange kept for the session transcript
type ChatMessage struct {
	ItemID     string    `json:"item_id"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion"`
	Reasoning  string    `json:"reasoning"`
	CreatedAt  time.Time `json:"created_at"`
}
