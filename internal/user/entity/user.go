package entity

import (
	"slices"
	"time"
)

// Education is the education block of a profile.
type Education struct {
	Qualification   string   `json:"qualification"`
	College         string   `json:"college"`
	Course          string   `json:"course,omitempty"`
	GradYear        string   `json:"gradYear"`
	Grade           string   `json:"grade,omitempty"`
	SkillsPrimary   []string `json:"skillsPrimary"`
	SkillsSecondary []string `json:"skillsSecondary"`
}

// Experience is one row of work history.
type Experience struct {
	Domain    string `json:"domain"`
	SubDomain string `json:"subDomain"`
	Years     string `json:"years"`
}

// Profile holds the personal and contact fields shared by directory
// records and the nested profile of registered accounts.
type Profile struct {
	FirstName  string       `json:"firstName,omitempty"`
	LastName   string       `json:"lastName,omitempty"`
	Email      string       `json:"email"`
	DOB        string       `json:"dob,omitempty"`
	Gender     string       `json:"gender,omitempty"`
	Phone      string       `json:"phone,omitempty"`
	AltPhone   string       `json:"altPhone,omitempty"`
	Address    string       `json:"address,omitempty"`
	Pincode    string       `json:"pincode,omitempty"`
	State      string       `json:"state,omitempty"`
	Country    string       `json:"country,omitempty"`
	Education  *Education   `json:"education,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	LinkedIn   string       `json:"linkedin,omitempty"`
	Resume     string       `json:"resume,omitempty"`
}

// DefaultProfile is the blank profile attached to a fresh account.
func DefaultProfile(firstName, lastName, email string) Profile {
	return Profile{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Education: &Education{
			SkillsPrimary:   []string{},
			SkillsSecondary: []string{},
		},
		Experience: []Experience{{}},
	}
}

// UserInput is what a caller supplies to create a directory record.
type UserInput struct {
	Name           string `json:"name"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Profile
}

// User is a directory record stored under the "users" key. Profile fields
// are flattened into the record's JSON object.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Profile
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// NewUser builds a record from input with the given identity and creation time.
func NewUser(id string, in UserInput, now time.Time) User {
	return User{
		ID:             id,
		Name:           in.Name,
		Role:           in.Role,
		ProfilePicture: in.ProfilePicture,
		Profile:        in.Profile.Clone(),
		CreatedAt:      now,
	}
}

// Clone returns a deep copy so callers cannot alias stored slices.
func (p Profile) Clone() Profile {
	out := p
	if p.Education != nil {
		e := *p.Education
		e.SkillsPrimary = slices.Clone(p.Education.SkillsPrimary)
		e.SkillsSecondary = slices.Clone(p.Education.SkillsSecondary)
		out.Education = &e
	}
	out.Experience = slices.Clone(p.Experience)
	return out
}

// Clone returns a deep copy of the record.
func (u User) Clone() User {
	out := u
	out.Profile = u.Profile.Clone()
	if u.UpdatedAt != nil {
		ts := *u.UpdatedAt
		out.UpdatedAt = &ts
	}
	return out
}
