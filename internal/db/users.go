package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, phone, city, state, zipcode, clearance_level,
	linkedin, github, website, summary, created_at, updated_at`

// GetUser retrieves a user by ID. Returns nil, nil when no user exists.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.City, &u.State, &u.Zipcode, &u.ClearanceLevel,
		&u.LinkedIn, &u.GitHub, &u.Website, &u.Summary, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes a user and, by cascade, every profile entry
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListJobs returns a user's employment entries in profile order
func (db *DB) ListJobs(ctx context.Context, userID uuid.UUID) ([]Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, company, role_title, location, start_date, end_date, responsibilities, ordinal
		 FROM jobs WHERE user_id = $1 ORDER BY ordinal, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var start, end Date
		if err := rows.Scan(&j.ID, &j.UserID, &j.Company, &j.RoleTitle, &j.Location,
			&start, &end, &j.Responsibilities, &j.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		j.StartDate, j.EndDate = optionalDate(start), optionalDate(end)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ListEducation returns a user's education entries in profile order
func (db *DB) ListEducation(ctx context.Context, userID uuid.UUID) ([]Education, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, school, degree_type, field, gpa, start_date, end_date, ordinal
		 FROM education WHERE user_id = $1 ORDER BY ordinal, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	defer rows.Close()

	var out []Education
	for rows.Next() {
		var e Education
		var start, end Date
		if err := rows.Scan(&e.ID, &e.UserID, &e.School, &e.DegreeType, &e.Field, &e.GPA,
			&start, &end, &e.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		e.StartDate, e.EndDate = optionalDate(start), optionalDate(end)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSkills returns a user's skills in profile order
func (db *DB) ListSkills(ctx context.Context, userID uuid.UUID) ([]Skill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, name, category, ordinal
		 FROM user_skills WHERE user_id = $1 ORDER BY ordinal, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var out []Skill
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Category, &s.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListCertifications returns a user's certifications in profile order
func (db *DB) ListCertifications(ctx context.Context, userID uuid.UUID) ([]Certification, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, name, issuer, issued_on, ordinal
		 FROM certifications WHERE user_id = $1 ORDER BY ordinal, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	defer rows.Close()

	var out []Certification
	for rows.Next() {
		var c Certification
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Issuer, &c.IssuedOn, &c.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListProjects returns a user's projects in profile order
func (db *DB) ListProjects(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, name, description, url, start_date, end_date, ordinal
		 FROM projects WHERE user_id = $1 ORDER BY ordinal, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		var start, end Date
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.URL,
			&start, &end, &p.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.StartDate, p.EndDate = optionalDate(start), optionalDate(end)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPublications returns a user's publications in profile order
func (db *DB) ListPublications(ctx context.Context, userID uuid.UUID) ([]Publication, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, title, venue, published_on, url, ordinal
		 FROM publications WHERE user_id = $1 ORDER BY ordinal, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Venue, &p.PublishedOn, &p.URL, &p.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// optionalDate maps a NULL date (zero after Scan) to nil
func optionalDate(d Date) *Date {
	if d.IsZero() {
		return nil
	}
	return &d
}
