package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cranium/internal/types"
)

// ProfileNotFoundError is returned when no user exists for a profile lookup
type ProfileNotFoundError struct {
	UserID uuid.UUID
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile not found: %s", e.UserID)
}

// profileRows groups every table that makes up one stored profile
type profileRows struct {
	user           *User
	jobs           []Job
	education      []Education
	skills         []Skill
	certifications []Certification
	projects       []Project
	publications   []Publication
}

// LoadProfile reads a user's stored profile as a snapshot. Profile
// sections are queried concurrently.
func (db *DB) LoadProfile(ctx context.Context, userID uuid.UUID) (*types.ProfileSnapshot, error) {
	var rows profileRows

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := db.GetUser(gCtx, userID)
		rows.user = u
		return err
	})
	g.Go(func() (err error) {
		rows.jobs, err = db.ListJobs(gCtx, userID)
		return err
	})
	g.Go(func() (err error) {
		rows.education, err = db.ListEducation(gCtx, userID)
		return err
	})
	g.Go(func() (err error) {
		rows.skills, err = db.ListSkills(gCtx, userID)
		return err
	})
	g.Go(func() (err error) {
		rows.certifications, err = db.ListCertifications(gCtx, userID)
		return err
	})
	g.Go(func() (err error) {
		rows.projects, err = db.ListProjects(gCtx, userID)
		return err
	})
	g.Go(func() (err error) {
		rows.publications, err = db.ListPublications(gCtx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	if rows.user == nil {
		return nil, &ProfileNotFoundError{UserID: userID}
	}
	return rows.snapshot(), nil
}

// SaveProfile stores a snapshot as a new user and returns the user ID.
// Everything is written in one transaction.
func (db *DB) SaveProfile(ctx context.Context, p *types.ProfileSnapshot) (uuid.UUID, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID uuid.UUID
	pi := p.Personal
	err = tx.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, city, state, zipcode, clearance_level,
		                    linkedin, github, website, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		pi.Name, pi.Email, pi.Phone, pi.City, pi.State, pi.Zipcode, pi.ClearanceLevel,
		pi.LinkedIn, pi.GitHub, pi.Website, pi.Summary,
	).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}

	batch := &pgx.Batch{}
	for i, e := range p.Experience {
		batch.Queue(`INSERT INTO jobs (user_id, company, role_title, location, start_date, end_date, responsibilities, ordinal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			userID, e.Organization, e.JobTitle, e.Location,
			ParseProfileDate(e.StartDate), ParseProfileDate(e.EndDate), StringArray(e.Responsibilities), i)
	}
	for i, e := range p.Education {
		batch.Queue(`INSERT INTO education (user_id, school, degree_type, field, gpa, start_date, end_date, ordinal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			userID, e.Institution, e.Degree, e.Field, e.GPA,
			ParseProfileDate(e.StartDate), ParseProfileDate(e.EndDate), i)
	}
	for i, s := range p.Skills {
		batch.Queue(`INSERT INTO user_skills (user_id, name, category, ordinal) VALUES ($1, $2, $3, $4)`,
			userID, s.Name, s.Category, i)
	}
	for i, c := range p.Certifications {
		batch.Queue(`INSERT INTO certifications (user_id, name, issuer, issued_on, ordinal) VALUES ($1, $2, $3, $4, $5)`,
			userID, c.Name, c.Issuer, c.Date, i)
	}
	for i, pr := range p.Projects {
		batch.Queue(`INSERT INTO projects (user_id, name, description, url, start_date, end_date, ordinal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			userID, pr.Name, pr.Description, pr.URL,
			ParseProfileDate(pr.StartDate), ParseProfileDate(pr.EndDate), i)
	}
	for i, pub := range p.Publications {
		batch.Queue(`INSERT INTO publications (user_id, title, venue, published_on, url, ordinal) VALUES ($1, $2, $3, $4, $5, $6)`,
			userID, pub.Title, pub.Venue, pub.Date, pub.URL, i)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return uuid.Nil, fmt.Errorf("failed to store profile entries: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit profile: %w", err)
	}
	return userID, nil
}

// snapshot maps stored rows onto a profile snapshot. Row IDs become item IDs.
func (r profileRows) snapshot() *types.ProfileSnapshot {
	u := r.user
	p := &types.ProfileSnapshot{
		Personal: types.Personal{
			Name:           u.Name,
			Email:          u.Email,
			Phone:          u.Phone,
			City:           u.City,
			State:          u.State,
			Zipcode:        u.Zipcode,
			ClearanceLevel: u.ClearanceLevel,
			LinkedIn:       u.LinkedIn,
			GitHub:         u.GitHub,
			Website:        u.Website,
			Summary:        u.Summary,
		},
	}
	for _, j := range r.jobs {
		p.Experience = append(p.Experience, types.ExperienceEntry{
			ID: j.ID.String(),
			ExperiencePayload: types.ExperiencePayload{
				Organization:     j.Company,
				JobTitle:         j.RoleTitle,
				Location:         j.Location,
				StartDate:        FormatProfileDate(j.StartDate, ""),
				EndDate:          FormatProfileDate(j.EndDate, "present"),
				Responsibilities: []string(j.Responsibilities),
			},
		})
	}
	for _, e := range r.education {
		p.Education = append(p.Education, types.EducationEntry{
			ID: e.ID.String(),
			EducationPayload: types.EducationPayload{
				Institution: e.School,
				Degree:      e.DegreeType,
				Field:       e.Field,
				GPA:         e.GPA,
				StartDate:   FormatProfileDate(e.StartDate, ""),
				EndDate:     FormatProfileDate(e.EndDate, ""),
			},
		})
	}
	for _, s := range r.skills {
		p.Skills = append(p.Skills, types.SkillEntry{
			ID:           s.ID.String(),
			SkillPayload: types.SkillPayload{Name: s.Name, Category: s.Category},
		})
	}
	for _, c := range r.certifications {
		p.Certifications = append(p.Certifications, types.CertificationEntry{
			ID:                   c.ID.String(),
			CertificationPayload: types.CertificationPayload{Name: c.Name, Issuer: c.Issuer, Date: c.IssuedOn},
		})
	}
	for _, pr := range r.projects {
		p.Projects = append(p.Projects, types.ProjectEntry{
			ID: pr.ID.String(),
			ProjectPayload: types.ProjectPayload{
				Name:        pr.Name,
				Description: pr.Description,
				URL:         pr.URL,
				StartDate:   FormatProfileDate(pr.StartDate, ""),
				EndDate:     FormatProfileDate(pr.EndDate, ""),
			},
		})
	}
	for _, pub := range r.publications {
		p.Publications = append(p.Publications, types.PublicationEntry{
			ID:                 pub.ID.String(),
			PublicationPayload: types.PublicationPayload{Title: pub.Title, Venue: pub.Venue, Date: pub.PublishedOn, URL: pub.URL},
		})
	}
	return p
}

// FormatProfileDate renders a stored date as "YYYY-MM". A nil date renders as open.
func FormatProfileDate(d *Date, open string) string {
	if d == nil || d.IsZero() {
		return open
	}
	return d.Format("2006-01")
}

var profileDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseProfileDate parses a profile date string. "present", empty and
// unparseable values map to nil (stored as NULL).
func ParseProfileDate(s string) *Date {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "present") {
		return nil
	}
	for _, layout := range profileDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &Date{Time: t}
		}
	}
	return nil
}
