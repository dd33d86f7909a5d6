package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ProfileSnapshot is the read-only profile record used to seed a workspace.
type ProfileSnapshot struct {
	Personal       Personal             `json:"personal" validate:"required"`
	Experience     []ExperienceEntry    `json:"experience" validate:"dive"`
	Education      []EducationEntry     `json:"education" validate:"dive"`
	Skills         []SkillEntry         `json:"skills" validate:"dive"`
	Certifications []CertificationEntry `json:"certifications" validate:"dive"`
	Projects       []ProjectEntry       `json:"projects" validate:"dive"`
	Publications   []PublicationEntry   `json:"publications" validate:"dive"`
}

// Personal groups identity and contact fields
type Personal struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string `json:"phone,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Zipcode        string `json:"zipcode,omitempty"`
	ClearanceLevel string `json:"clearance_level,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty" validate:"omitempty,url"`
	GitHub         string `json:"github,omitempty" validate:"omitempty,url"`
	Website        string `json:"website,omitempty" validate:"omitempty,url"`
	Summary        string `json:"summary,omitempty"`
}

// ExperienceEntry is an employment record from the profile
type ExperienceEntry struct {
	ID string `json:"id,omitempty"`
	ExperiencePayload
}

// EducationEntry is an education record from the profile
type EducationEntry struct {
	ID string `json:"id,omitempty"`
	EducationPayload
}

// SkillEntry is a skill record from the profile
type SkillEntry struct {
	ID string `json:"id,omitempty"`
	SkillPayload
}

// CertificationEntry is a certification record from the profile
type CertificationEntry struct {
	ID string `json:"id,omitempty"`
	CertificationPayload
}

// ProjectEntry is a project record from the profile
type ProjectEntry struct {
	ID string `json:"id,omitempty"`
	ProjectPayload
}

// PublicationEntry is a publication record from the profile
type PublicationEntry struct {
	ID string `json:"id,omitempty"`
	PublicationPayload
}

// Validate checks required fields and rejects duplicate item ids.
func (p *ProfileSnapshot) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, it := range p.Items() {
		if seen[it.ID] {
			return fmt.Errorf("duplicate item id %q in profile", it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}

// personalFields returns the personal fields in display order.
func (p Personal) personalFields() []PersonalPayload {
	return []PersonalPayload{
		{Field: "name", Value: p.Name},
		{Field: "email", Value: p.Email},
		{Field: "phone", Value: p.Phone},
		{Field: "city", Value: p.City},
		{Field: "state", Value: p.State},
		{Field: "zipcode", Value: p.Zipcode},
		{Field: "clearance_level", Value: p.ClearanceLevel},
		{Field: "linkedin", Value: p.LinkedIn},
		{Field: "github", Value: p.GitHub},
		{Field: "website", Value: p.Website},
		{Field: "summary", Value: p.Summary},
	}
}

// Items maps the snapshot 1:1 onto items in profile order. Entries without
// an id get a positional one ("experience-0", ...); each non-empty personal
// field becomes its own item ("personal-email").
func (p *ProfileSnapshot) Items() []Item {
	var items []Item

	for _, f := range p.Personal.personalFields() {
		if f.Value == "" {
			continue
		}
		field := f
		items = append(items, NewItem("personal-"+field.Field, &field))
	}
	for i := range p.Experience {
		e := p.Experience[i].ExperiencePayload
		items = append(items, NewItem(entryID(p.Experience[i].ID, KindExperience, i), e.Clone()))
	}
	for i := range p.Education {
		e := p.Education[i].EducationPayload
		items = append(items, NewItem(entryID(p.Education[i].ID, KindEducation, i), e.Clone()))
	}
	for i := range p.Skills {
		s := p.Skills[i].SkillPayload
		items = append(items, NewItem(entryID(p.Skills[i].ID, KindSkill, i), s.Clone()))
	}
	for i := range p.Certifications {
		c := p.Certifications[i].CertificationPayload
		items = append(items, NewItem(entryID(p.Certifications[i].ID, KindCertification, i), c.Clone()))
	}
	for i := range p.Projects {
		pr := p.Projects[i].ProjectPayload
		items = append(items, NewItem(entryID(p.Projects[i].ID, KindProject, i), pr.Clone()))
	}
	for i := range p.Publications {
		pub := p.Publications[i].PublicationPayload
		items = append(items, NewItem(entryID(p.Publications[i].ID, KindPublication, i), pub.Clone()))
	}
	return items
}

func entryID(id string, kind ItemKind, index int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("%s-%d", kind, index)
}
