package user

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
)

// SampleUsers are the demo records an empty directory starts with.
func SampleUsers(now time.Time) []entity.User {
	sample := func(id, first, last, email, role, picture string) entity.User {
		return entity.User{
			ID:             id,
			Name:           first + " " + last,
			Role:           role,
			ProfilePicture: picture,
			Profile:        entity.Profile{FirstName: first, LastName: last, Email: email},
			CreatedAt:      now,
		}
	}
	return []entity.User{
		sample("1", "John", "Doe", "john.doe@example.com", "Software Engineer",
			"https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face"),
		sample("2", "Jane", "Smith", "jane.smith@example.com", "Product Manager",
			"https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150&h=150&fit=crop&crop=face"),
		sample("3", "Mike", "Johnson", "mike.johnson@example.com", "UX Designer",
			"https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face"),
	}
}

// LoadSeedFile reads a JSON array of user records from path. Records without
// a creation time get now.
func LoadSeedFile(fs afero.Fs, path string, now time.Time) ([]entity.User, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var users []entity.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i := range users {
		if users[i].ID == "" {
			return nil, fmt.Errorf("seed file %s: record %d has no id", path, i)
		}
		if users[i].CreatedAt.IsZero() {
			users[i].CreatedAt = now
		}
	}
	return users, nil
}
