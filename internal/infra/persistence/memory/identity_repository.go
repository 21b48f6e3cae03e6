package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type identityRepository struct {
	sess session
}

// NewIdentityRepository is the constructor for the in-memory identity repository.
func NewIdentityRepository(store *Store) repository.IdentityRepository {
	return &identityRepository{sess: session{store: store}}
}

func (repo *identityRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Identity, error) {
	var found *entity.Identity
	err := repo.sess.read(func(d *dataset) error {
		identity, ok := d.identities[id]
		if !ok {
			return repository.ErrIdentityNotFound
		}
		found = copyIdentity(identity)

		return nil
	})

	return found, err
}

func (repo *identityRepository) FindByUsername(_ context.Context, username string) (*entity.Identity, error) {
	return repo.findBy(func(i *entity.Identity) bool { return i.Username == username })
}

func (repo *identityRepository) FindByEmail(_ context.Context, email string) (*entity.Identity, error) {
	return repo.findBy(func(i *entity.Identity) bool { return strings.EqualFold(i.Email, email) })
}

func (repo *identityRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := repo.FindByUsername(ctx, username)

	return existence(err)
}

func (repo *identityRepository) ExistsByEmail(_ context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	_, err := repo.findBy(func(i *entity.Identity) bool {
		return strings.EqualFold(i.Email, email) && !excluded(i.ID, excludeID)
	})

	return existence(err)
}

func (repo *identityRepository) ListByRole(_ context.Context, role entity.Role) ([]*entity.Identity, error) {
	var out []*entity.Identity
	err := repo.sess.read(func(d *dataset) error {
		for _, identity := range d.identities {
			if identity.Roles.Contains(role) {
				out = append(out, copyIdentity(identity))
			}
		}

		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, err
}

// Create enforces the same unique constraints as the identities table.
func (repo *identityRepository) Create(_ context.Context, identity *entity.Identity) error {
	return repo.sess.write(func(d *dataset) error {
		for _, existing := range d.identities {
			if existing.Username == identity.Username {
				return domainerrors.NewIntegrityError("username", "uq_identities_username", errors.New("duplicate username"))
			}
			if strings.EqualFold(existing.Email, identity.Email) {
				return domainerrors.NewIntegrityError("email", "uq_identities_email", errors.New("duplicate email"))
			}
		}

		if identity.ID == uuid.Nil {
			identity.ID = uuid.New()
		}
		now := time.Now()
		identity.CreatedAt = now
		identity.UpdatedAt = now
		d.identities[identity.ID] = copyIdentity(identity)

		return nil
	})
}

func (repo *identityRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	return repo.update(id, func(i *entity.Identity) error {
		i.IsActive = active

		return nil
	})
}

func (repo *identityRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return repo.update(id, func(i *entity.Identity) error {
		i.PasswordHash = passwordHash

		return nil
	})
}

func (repo *identityRepository) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	return repo.sess.write(func(d *dataset) error {
		for _, existing := range d.identities {
			if existing.ID != id && strings.EqualFold(existing.Email, email) {
				return domainerrors.NewIntegrityError("email", "uq_identities_email", errors.New("duplicate email"))
			}
		}

		return updateIdentity(d, id, func(i *entity.Identity) error {
			i.Email = email

			return nil
		})
	})
}

func (repo *identityRepository) findBy(match func(*entity.Identity) bool) (*entity.Identity, error) {
	var found *entity.Identity
	err := repo.sess.read(func(d *dataset) error {
		for _, identity := range d.identities {
			if match(identity) {
				found = copyIdentity(identity)

				return nil
			}
		}

		return repository.ErrIdentityNotFound
	})

	return found, err
}

func (repo *identityRepository) update(id uuid.UUID, mutate func(*entity.Identity) error) error {
	return repo.sess.write(func(d *dataset) error {
		return updateIdentity(d, id, mutate)
	})
}

func updateIdentity(d *dataset, id uuid.UUID, mutate func(*entity.Identity) error) error {
	current, ok := d.identities[id]
	if !ok {
		return repository.ErrIdentityNotFound
	}

	next := copyIdentity(current)
	if err := mutate(next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	d.identities[id] = next

	return nil
}

func copyIdentity(i *entity.Identity) *entity.Identity {
	out := *i
	out.Roles = slices.Clone(i.Roles)

	return &out
}

func existence(err error) (bool, error) {
	if errors.Is(err, repository.ErrIdentityNotFound) || errors.Is(err, repository.ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func excluded(id uuid.UUID, excludeID *uuid.UUID) bool {
	return excludeID != nil && *excludeID == id
}
