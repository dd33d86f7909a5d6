// Package types provides type definitions for structured data used throughout the cranium workbench.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
)

// ItemKind identifies which payload variant an Item carries
type ItemKind string

// Item kinds. Every kind maps to exactly one Payload implementation.
const (
	KindPersonal      ItemKind = "personal"
	KindExperience    ItemKind = "experience"
	KindEducation     ItemKind = "education"
	KindSkill         ItemKind = "skill"
	KindCertification ItemKind = "certification"
	KindProject       ItemKind = "project"
	KindPublication   ItemKind = "publication"
	KindCustom        ItemKind = "custom"
)

// AllKinds lists every item kind in profile order.
var AllKinds = []ItemKind{
	KindPersonal,
	KindExperience,
	KindEducation,
	KindSkill,
	KindCertification,
	KindProject,
	KindPublication,
	KindCustom,
}

// Valid reports whether k is a known kind.
func (k ItemKind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Item is a single draggable unit of resume content.
type Item struct {
	ID      string   `json:"id"`
	Kind    ItemKind `json:"kind"`
	Payload Payload  `json:"payload"`
}

// NewItem builds an Item whose Kind is taken from the payload.
func NewItem(id string, payload Payload) Item {
	return Item{ID: id, Kind: payload.Kind(), Payload: payload}
}

// Text returns a one-line rendering of the item content.
func (it Item) Text() string {
	if it.Payload == nil {
		return ""
	}
	return it.Payload.Text()
}

// IsProtected reports whether the item is an identity field that never
// triggers advisory evaluation.
func (it Item) IsProtected() bool {
	p, ok := it.Payload.(*PersonalPayload)
	if !ok {
		return false
	}
	return IsProtectedField(p.Field)
}

type itemJSON struct {
	ID      string          `json:"id"`
	Kind    ItemKind        `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// UnmarshalJSON decodes the payload into the variant named by kind.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := DecodePayload(raw.Kind, raw.Payload)
	if err != nil {
		return fmt.Errorf("item %s: %w", raw.ID, err)
	}
	it.ID = raw.ID
	it.Kind = raw.Kind
	it.Payload = payload
	return nil
}
