package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the closed set of per-kind item contents.
type Payload interface {
	Kind() ItemKind
	Text() string
	// Clone returns a deep copy so canonical payloads are never aliased.
	Clone() Payload
	sealed()
}

// ProtectedPersonalFields are identity fields excluded from advisory triggering.
var ProtectedPersonalFields = []string{"name", "email", "city", "state", "zipcode", "phone", "clearance_level"}

// IsProtectedField reports whether a personal field name is protected.
func IsProtectedField(field string) bool {
	for _, f := range ProtectedPersonalFields {
		if f == field {
			return true
		}
	}
	return false
}

// PersonalPayload holds one personal field (name, email, summary, ...)
type PersonalPayload struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ExperiencePayload is a single employment entry
type ExperiencePayload struct {
	Organization     string   `json:"organization"`
	JobTitle         string   `json:"job_title"`
	Location         string   `json:"location,omitempty"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// EducationPayload is a single education entry
type EducationPayload struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	GPA         string `json:"gpa,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// SkillPayload is a single skill
type SkillPayload struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// CertificationPayload is a certification or license
type CertificationPayload struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// ProjectPayload is a project entry
type ProjectPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// PublicationPayload is a publication entry
type PublicationPayload struct {
	Title string `json:"title"`
	Venue string `json:"venue,omitempty"`
	Date  string `json:"date,omitempty"`
	URL   string `json:"url,omitempty"`
}

// CustomPayload is free text authored by the user. SectionID is empty while
// the item sits in a built-in container.
type CustomPayload struct {
	Body      string `json:"text"`
	SectionID string `json:"section_id,omitempty"`
}

func (*PersonalPayload) Kind() ItemKind      { return KindPersonal }
func (*ExperiencePayload) Kind() ItemKind    { return KindExperience }
func (*EducationPayload) Kind() ItemKind     { return KindEducation }
func (*SkillPayload) Kind() ItemKind         { return KindSkill }
func (*CertificationPayload) Kind() ItemKind { return KindCertification }
func (*ProjectPayload) Kind() ItemKind       { return KindProject }
func (*PublicationPayload) Kind() ItemKind   { return KindPublication }
func (*CustomPayload) Kind() ItemKind        { return KindCustom }

func (*PersonalPayload) sealed()      {}
func (*ExperiencePayload) sealed()    {}
func (*EducationPayload) sealed()     {}
func (*SkillPayload) sealed()         {}
func (*CertificationPayload) sealed() {}
func (*ProjectPayload) sealed()       {}
func (*PublicationPayload) sealed()   {}
func (*CustomPayload) sealed()        {}

func (p *PersonalPayload) Text() string { return fmt.Sprintf("%s: %s", p.Field, p.Value) }

func (p *ExperiencePayload) Text() string {
	return fmt.Sprintf("%s at %s (%s - %s)", p.JobTitle, p.Organization, p.StartDate, p.EndDate)
}

func (p *EducationPayload) Text() string {
	degree := strings.TrimSpace(strings.Join([]string{p.Degree, p.Field}, " "))
	if degree == "" {
		return fmt.Sprintf("%s (%s - %s)", p.Institution, p.StartDate, p.EndDate)
	}
	return fmt.Sprintf("%s, %s (%s - %s)", degree, p.Institution, p.StartDate, p.EndDate)
}

func (p *SkillPayload) Text() string { return p.Name }

func (p *CertificationPayload) Text() string {
	if p.Issuer == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Issuer)
}

func (p *ProjectPayload) Text() string {
	if p.Description == "" {
		return p.Name
	}
	return fmt.Sprintf("%s: %s", p.Name, p.Description)
}

func (p *PublicationPayload) Text() string {
	if p.Venue == "" {
		return p.Title
	}
	return fmt.Sprintf("%s, %s", p.Title, p.Venue)
}

func (p *CustomPayload) Text() string { return p.Body }

func (p *PersonalPayload) Clone() Payload { c := *p; return &c }

func (p *ExperiencePayload) Clone() Payload {
	c := *p
	c.Responsibilities = append([]string(nil), p.Responsibilities...)
	return &c
}

func (p *EducationPayload) Clone() Payload     { c := *p; return &c }
func (p *SkillPayload) Clone() Payload         { c := *p; return &c }
func (p *CertificationPayload) Clone() Payload { c := *p; return &c }
func (p *ProjectPayload) Clone() Payload       { c := *p; return &c }
func (p *PublicationPayload) Clone() Payload   { c := *p; return &c }
func (p *CustomPayload) Clone() Payload        { c := *p; return &c }

// NewPayload returns an empty payload for kind.
func NewPayload(kind ItemKind) (Payload, error) {
	switch kind {
	case KindPersonal:
		return &PersonalPayload{}, nil
	case KindExperience:
		return &ExperiencePayload{}, nil
	case KindEducation:
		return &EducationPayload{}, nil
	case KindSkill:
		return &SkillPayload{}, nil
	case KindCertification:
		return &CertificationPayload{}, nil
	case KindProject:
		return &ProjectPayload{}, nil
	case KindPublication:
		return &PublicationPayload{}, nil
	case KindCustom:
		return &CustomPayload{}, nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}

// DecodePayload decodes raw JSON into the payload variant for kind.
func DecodePayload(kind ItemKind, raw []byte) (Payload, error) {
	payload, err := NewPayload(kind)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return payload, nil
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return payload, nil
}

// ApplyPatch returns a copy of base with the JSON fields in patch overwritten.
// Unknown field names are rejected.
func ApplyPatch(base Payload, patch map[string]any) (Payload, error) {
	if base == nil {
		return nil, fmt.Errorf("cannot patch nil payload")
	}
	if len(patch) == 0 {
		return base.Clone(), nil
	}

	encoded, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode payload fields: %w", err)
	}
	for k, v := range patch {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patched payload: %w", err)
	}

	out, err := NewPayload(base.Kind())
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return nil, fmt.Errorf("invalid %s edit: %w", base.Kind(), err)
	}
	return out, nil
}
