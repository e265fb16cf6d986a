package profiles

import (
	"regexp"
	"strings"

	"Tutter/internal/core/docstore"
)

// Document field names for the users collection
const (
	fieldName     = "name"
	fieldEmail    = "email"
	fieldLocation = "location"
	fieldAge      = "age"
	fieldAvatar   = "avatarSymbol"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Profile is the signed-in user's profile document
type Profile struct {
	Age      *int   `json:"age,omitempty"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Avatar   string `json:"avatarSymbol"`
}

// Blank returns an empty profile for the principal with the default avatar
func Blank(principalID string) Profile {
	return Profile{ID: principalID, Avatar: DefaultAvatar}
}

// Clone returns a copy that shares no pointers with p
func (p Profile) Clone() Profile {
	out := p
	if p.Age != nil {
		age := *p.Age
		out.Age = &age
	}
	return out
}

// Validate checks every field of the profile
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError(fieldName, "must not be empty")
	}
	if !ValidEmail(p.Email) {
		return NewValidationError(fieldEmail, "must look like local@domain.tld")
	}
	if p.Age != nil && *p.Age < 0 {
		return NewValidationError(fieldAge, "must not be negative")
	}
	if !IsAvatar(p.Avatar) {
		return NewValidationError(fieldAvatar, "must be one of the available avatars")
	}
	return nil
}

// ValidEmail reports whether s has the shape local@domain.tld
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Fields returns the full document body for the users collection.
// A nil age is written as null so a cleared age is cleared in the store too.
func (p Profile) Fields() docstore.Fields {
	var age any
	if p.Age != nil {
		age = *p.Age
	}
	return docstore.Fields{
		fieldName:     p.Name,
		fieldEmail:    p.Email,
		fieldLocation: p.Location,
		fieldAge:      age,
		fieldAvatar:   p.Avatar,
	}
}

// FromDocument decodes a users document
func FromDocument(doc docstore.Document) Profile {
	p := Blank(doc.ID)
	if v, ok := doc.Fields[fieldName].(string); ok {
		p.Name = v
	}
	if v, ok := doc.Fields[fieldEmail].(string); ok {
		p.Email = v
	}
	if v, ok := doc.Fields[fieldLocation].(string); ok {
		p.Location = v
	}
	if v, ok := doc.Fields[fieldAvatar].(string); ok && IsAvatar(v) {
		p.Avatar = v
	}
	switch v := doc.Fields[fieldAge].(type) {
	case float64:
		age := int(v)
		p.Age = &age
	case int:
		age := v
		p.Age = &age
	}
	return p
}
