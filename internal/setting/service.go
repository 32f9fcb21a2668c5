package setting

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage/repo"
	userrepo "github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/repo"
)

// Service reports on the keys in the store. It never returns stored values.
type Service struct {
	repo       *repo.Repo
	categories map[string]string
}

// NewService constructs a Service. categories labels known keys; any other
// key is reported as "other".
func NewService(r *repo.Repo, categories map[string]string) *Service {
	return &Service{repo: r, categories: categories}
}

// List returns every stored key in ascending order.
func (s *Service) List(ctx context.Context) ([]*entity.Setting, error) {
	entries, err := s.repo.Entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Setting, 0, len(entries))
	for _, e := range entries {
		cat, ok := s.categories[e.Key]
		if !ok {
			cat = "other"
		}
		out = append(out, entity.NewSetting(e.Key, cat, e.Size))
	}
	return out, nil
}

// Categories labels the keys written by the directory and auth services.
func Categories(accountsKey string) map[string]string {
	return map[string]string{
		userrepo.UsersKey: "directory",
		accountsKey:       "accounts",
		auth.SessionKey:   "session",
		auth.SecretKey:    "secret",
	}
}
