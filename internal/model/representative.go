package model

import (
	"strings"
	"time"
)

// Branch is the coarse government branch of a representative. It doubles as
// the jurisdiction level on representative-geography mappings.
type Branch string

const (
	BranchFederal Branch = "federal"
	BranchState   Branch = "state"
)

// Candidate is raw, not-yet-normalized representative data produced by a
// source adapter. State and District are lookup hints from the adapter and
// are not persisted.
type Candidate struct {
	Name         string     `json:"name" yaml:"name"`
	Title        string     `json:"title" yaml:"title"`
	Party        string     `json:"party,omitempty" yaml:"party"`
	Branch       string     `json:"branch,omitempty" yaml:"branch"`
	OfficeType   string     `json:"office_type,omitempty" yaml:"office_type"`
	Phone        string     `json:"phone,omitempty" yaml:"phone"`
	Email        string     `json:"email,omitempty" yaml:"email"`
	Website      string     `json:"website,omitempty" yaml:"website"`
	PhotoURL     string     `json:"photo_url,omitempty" yaml:"photo_url"`
	AddressLine1 string     `json:"address_line1,omitempty" yaml:"address_line1"`
	AddressLine2 string     `json:"address_line2,omitempty" yaml:"address_line2"`
	AddressCity  string     `json:"address_city,omitempty" yaml:"address_city"`
	AddressState string     `json:"address_state,omitempty" yaml:"address_state"`
	AddressZip   string     `json:"address_zip,omitempty" yaml:"address_zip"`
	TermStart    *time.Time `json:"term_start,omitempty" yaml:"term_start"`
	TermEnd      *time.Time `json:"term_end,omitempty" yaml:"term_end"`
	IsActive     *bool      `json:"is_active,omitempty" yaml:"is_active"`

	State    string `json:"state,omitempty" yaml:"state"`
	District string `json:"district,omitempty" yaml:"district"`
}

// Representative is a canonical, normalized representative record. Name and
// Title form the natural key; nil pointer fields are stored as NULL.
type Representative struct {
	ID         int64      `json:"id,omitempty"`
	Name       string     `json:"name"`
	Title      string     `json:"title"`
	Party      *string    `json:"party"`
	Branch     Branch     `json:"branch"`
	OfficeType *string    `json:"office_type"`
	Phone      *string    `json:"phone"`
	Email      *string    `json:"email"`
	Website    *string    `json:"website"`
	PhotoURL   *string    `json:"photo_url"`
	Address    Address    `json:"address"`
	TermStart  *time.Time `json:"term_start"`
	TermEnd    *time.Time `json:"term_end"`
	IsActive   bool       `json:"is_active"`
	UpdatedAt  time.Time  `json:"updated_at,omitzero"`
}

// Address is a representative's office address.
type Address struct {
	Line1 *string `json:"line1"`
	Line2 *string `json:"line2"`
	City  *string `json:"city"`
	State *string `json:"state"`
	Zip   *string `json:"zip"`
}

// Key returns the dedup/upsert key: lowercased, trimmed name and title.
func (r Representative) Key() RepKey {
	return NewRepKey(r.Name, r.Title)
}

// RepKey identifies a unique representative.
type RepKey struct {
	Name  string
	Title string
}

// NewRepKey builds a RepKey from raw name and title values.
func NewRepKey(name, title string) RepKey {
	return RepKey{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Title: strings.ToLower(strings.TrimSpace(title)),
	}
}

// Mapping links a representative to a geography with a jurisdiction level.
type Mapping struct {
	RepresentativeID  int64  `json:"representative_id"`
	GeographyID       int64  `json:"geography_id"`
	JurisdictionLevel string `json:"jurisdiction_level"`
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
