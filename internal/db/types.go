package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// User holds the identity and contact fields of a stored profile
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Zipcode        string    `json:"zipcode,omitempty"`
	ClearanceLevel string    `json:"clearance_level,omitempty"`
	LinkedIn       string    `json:"linkedin,omitempty"`
	GitHub         string    `json:"github,omitempty"`
	Website        string    `json:"website,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Job represents an employment history entry
type Job struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	Company          string      `json:"company"`
	RoleTitle        string      `json:"role_title"`
	Location         string      `json:"location,omitempty"`
	StartDate        *Date       `json:"start_date,omitempty"`
	EndDate          *Date       `json:"end_date,omitempty"` // nil means current
	Responsibilities StringArray `json:"responsibilities"`   // JSONB array
	Ordinal          int         `json:"ordinal"`
}

// Education represents an education entry
type Education struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	School     string    `json:"school"`
	DegreeType string    `json:"degree_type,omitempty"`
	Field      string    `json:"field,omitempty"`
	GPA        string    `json:"gpa,omitempty"`
	StartDate  *Date     `json:"start_date,omitempty"`
	EndDate    *Date     `json:"end_date,omitempty"`
	Ordinal    int       `json:"ordinal"`
}

// Skill is one skill listed on a profile
type Skill struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Ordinal  int       `json:"ordinal"`
}

// Certification is a certification or license
type Certification struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Issuer   string    `json:"issuer,omitempty"`
	IssuedOn string    `json:"issued_on,omitempty"`
	Ordinal  int       `json:"ordinal"`
}

// Project is a project entry
type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	StartDate   *Date     `json:"start_date,omitempty"`
	EndDate     *Date     `json:"end_date,omitempty"`
	Ordinal     int       `json:"ordinal"`
}

// Publication is a publication entry
type Publication struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue,omitempty"`
	PublishedOn string    `json:"published_on,omitempty"`
	URL         string    `json:"url,omitempty"`
	Ordinal     int       `json:"ordinal"`
}

// Date is a custom type for handling SQL DATE (YYYY-MM-DD)
type Date struct {
	time.Time
}

// Scan implements the Scanner interface
func (d *Date) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return errors.New("failed to scan Date")
	}
	d.Time = t
	return nil
}

// Value implements the Valuer interface
func (d *Date) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return d.Time, nil
}

// MarshalJSON implements json.Marshaler
func (d *Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" || str == `""` {
		return nil
	}
	if len(str) > 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	var err error
	d.Time, err = time.Parse("2006-01-02", str)
	return err
}

// StringArray handles JSONB string arrays
type StringArray []string

// Scan implements the Scanner interface for StringArray
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = []string{}
		return nil
	}
	source, ok := src.([]byte)
	if !ok {
		return errors.New("type assertion .([]byte) failed")
	}
	return json.Unmarshal(source, a)
}

// Value implements the Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}
