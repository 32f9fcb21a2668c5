package entity

import (
	"slices"
	"time"
)

// UserPatch carries the fields of an update. A nil field is left unchanged.
type UserPatch struct {
	Name           *string      `json:"name,omitempty"`
	Role           *string      `json:"role,omitempty"`
	ProfilePicture *string      `json:"profilePicture,omitempty"`
	FirstName      *string      `json:"firstName,omitempty"`
	LastName       *string      `json:"lastName,omitempty"`
	Email          *string      `json:"email,omitempty"`
	DOB            *string      `json:"dob,omitempty"`
	Gender         *string      `json:"gender,omitempty"`
	Phone          *string      `json:"phone,omitempty"`
	AltPhone       *string      `json:"altPhone,omitempty"`
	Address        *string      `json:"address,omitempty"`
	Pincode        *string      `json:"pincode,omitempty"`
	State          *string      `json:"state,omitempty"`
	Country        *string      `json:"country,omitempty"`
	Education      *Education   `json:"education,omitempty"`
	Experience     []Experience `json:"experience,omitempty"`
	LinkedIn       *string      `json:"linkedin,omitempty"`
	Resume         *string      `json:"resume,omitempty"`
}

// PatchFromInput turns a full form submission into a patch that overwrites
// every field the form carries.
func PatchFromInput(in UserInput) UserPatch {
	return UserPatch{
		Name:           &in.Name,
		Role:           &in.Role,
		ProfilePicture: &in.ProfilePicture,
		FirstName:      &in.FirstName,
		LastName:       &in.LastName,
		Email:          &in.Email,
		DOB:            &in.DOB,
		Gender:         &in.Gender,
		Phone:          &in.Phone,
		AltPhone:       &in.AltPhone,
		Address:        &in.Address,
		Pincode:        &in.Pincode,
		State:          &in.State,
		Country:        &in.Country,
		LinkedIn:       &in.LinkedIn,
		Resume:         &in.Resume,
		Education:      in.Education,
		Experience:     in.Experience,
	}
}

// Apply returns u merged with the patch and stamped with updatedAt.
// u itself is not modified.
func (p UserPatch) Apply(u User, updatedAt time.Time) User {
	out := u
	out.Profile = u.Profile.Clone()

	set(&out.Name, p.Name)
	set(&out.Role, p.Role)
	set(&out.ProfilePicture, p.ProfilePicture)
	set(&out.FirstName, p.FirstName)
	set(&out.LastName, p.LastName)
	set(&out.Email, p.Email)
	set(&out.DOB, p.DOB)
	set(&out.Gender, p.Gender)
	set(&out.Phone, p.Phone)
	set(&out.AltPhone, p.AltPhone)
	set(&out.Address, p.Address)
	set(&out.Pincode, p.Pincode)
	set(&out.State, p.State)
	set(&out.Country, p.Country)
	set(&out.LinkedIn, p.LinkedIn)
	set(&out.Resume, p.Resume)

	if p.Education != nil {
		e := *p.Education
		e.SkillsPrimary = slices.Clone(p.Education.SkillsPrimary)
		e.SkillsSecondary = slices.Clone(p.Education.SkillsSecondary)
		out.Education = &e
	}
	if p.Experience != nil {
		out.Experience = slices.Clone(p.Experience)
	}

	ts := updatedAt
	out.UpdatedAt = &ts
	return out
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
