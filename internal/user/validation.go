package user

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizeFormInput fills the derived fields a profile form leaves blank:
// the display name from first and last name, and the role from the
// education qualification.
func NormalizeFormInput(in entity.UserInput) entity.UserInput {
	if strings.TrimSpace(in.Name) == "" {
		in.Name = strings.TrimSpace(in.FirstName + " " + in.LastName)
	}
	if strings.TrimSpace(in.Role) == "" {
		in.Role = "Professional"
		if in.Education != nil && strings.TrimSpace(in.Education.Qualification) != "" {
			in.Role = in.Education.Qualification
		}
	}
	return in
}

// SanitizeInput trims the identity fields and lowercases the email.
func SanitizeInput(in entity.UserInput) entity.UserInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	in.ProfilePicture = strings.TrimSpace(in.ProfilePicture)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

// ValidateInput returns a field -> message map; an empty map means valid.
func ValidateInput(in entity.UserInput) map[string]string {
	errs := map[string]string{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs["name"] = "Name is required"
	case len([]rune(name)) < 2:
		errs["name"] = "Name must be at least 2 characters"
	}

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !IsValidEmail(email):
		errs["email"] = "Please enter a valid email address"
	}

	if strings.TrimSpace(in.Role) == "" {
		errs["role"] = "Role is required"
	}

	if pic := strings.TrimSpace(in.ProfilePicture); pic != "" {
		if u, err := url.Parse(pic); err != nil || u.Scheme == "" || u.Host == "" {
			errs["profilePicture"] = "Please enter a valid URL"
		}
	}
	return errs
}

// ValidateForm applies ValidateInput plus the profile form's required
// fields. New records go through it.
func ValidateForm(in entity.UserInput) map[string]string {
	errs := ValidateInput(in)
	if strings.TrimSpace(in.FirstName) == "" {
		errs["firstName"] = "First name is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		errs["lastName"] = "Last name is required"
	}
	if strings.TrimSpace(in.Phone) == "" {
		errs["phone"] = "Phone is required"
	}
	return errs
}

// ValidatePatch rejects an edit that blanks a required form field. Fields
// the patch leaves unset are not checked, so records created before these
// rules stay editable.
func ValidatePatch(p entity.UserPatch) map[string]string {
	errs := map[string]string{}
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) == "" {
		errs["firstName"] = "First name is required"
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) == "" {
		errs["lastName"] = "Last name is required"
	}
	if p.Phone != nil && strings.TrimSpace(*p.Phone) == "" {
		errs["phone"] = "Phone is required"
	}
	return errs
}

// SanitizePatch trims the string fields an edit sets and lowercases the
// email, the same way SanitizeInput treats new records.
func SanitizePatch(p entity.UserPatch) entity.UserPatch {
	for _, f := range []**string{
		&p.Name, &p.Role, &p.ProfilePicture, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
	} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	if p.Email != nil {
		v := strings.ToLower(*p.Email)
		p.Email = &v
	}
	return p
}
