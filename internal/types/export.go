package types

// CustomSection is a user-authored group of items
type CustomSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// ExportItem is one resolved item handed to the document renderer
type ExportItem struct {
	Kind    ItemKind `json:"kind"`
	Payload Payload  `json:"payload"`
}

// ExportText is the payload shape of a custom-section item in an export
type ExportText struct {
	Text string `json:"text"`
}

// ExportSectionItem wraps section item text
type ExportSectionItem struct {
	Payload ExportText `json:"payload"`
}

// ExportSection is a custom section in an export
type ExportSection struct {
	Title string              `json:"title"`
	Items []ExportSectionItem `json:"items"`
}

// ExportDocument is the input contract of the external document renderer
type ExportDocument struct {
	Items    []ExportItem    `json:"items"`
	Sections []ExportSection `json:"sections"`
}

// PlacementState is the persisted "choice" state of a session
type PlacementState struct {
	Containers map[string][]string `json:"containers"`
	Sections   []CustomSection     `json:"sections,omitempty"`
	// Edits holds saved field patches keyed by item id.
	Edits map[string]map[string]any `json:"edits,omitempty"`
}
