package memory

import (
	"context"
	"slices"
	"time"

	"rachel/internal/domain/entity"
	domainerrors "rachel/internal/domain/errors"
	"rachel/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type profileRepository struct {
	sess session
}

// NewProfileRepository is the constructor for the in-memory profile repository.
func NewProfileRepository(store *Store) repository.ProfileRepository {
	return &profileRepository{sess: session{store: store}}
}

func (repo *profileRepository) FindByIdentityID(_ context.Context, identityID uuid.UUID) (*entity.Profile, error) {
	var found *entity.Profile
	err := repo.sess.read(func(d *dataset) error {
		profile, ok := d.profiles[identityID]
		if !ok {
			return repository.ErrProfileNotFound
		}
		found = copyProfile(profile)

		return nil
	})

	return found, err
}

func (repo *profileRepository) ExistsByPhone(_ context.Context, phone string, excludeIdentityID *uuid.UUID) (bool, error) {
	exists := false
	err := repo.sess.read(func(d *dataset) error {
		for id, profile := range d.profiles {
			if profile.Common.PhoneNumber == phone && !excluded(id, excludeIdentityID) {
				exists = true

				return nil
			}
		}

		return nil
	})

	return exists, err
}

func (repo *profileRepository) ExistsByIdentification(
	_ context.Context,
	number, countryOfIssue string,
	idType entity.IDType,
	excludeIdentityID *uuid.UUID,
) (bool, error) {
	exists := false
	err := repo.sess.read(func(d *dataset) error {
		for id, profile := range d.profiles {
			if sameIdentification(&profile.Common, number, countryOfIssue, idType) && !excluded(id, excludeIdentityID) {
				exists = true

				return nil
			}
		}

		return nil
	})

	return exists, err
}

// Create enforces the same unique constraints as the profiles table, across every kind.
func (repo *profileRepository) Create(_ context.Context, profile *entity.Profile) error {
	return repo.sess.write(func(d *dataset) error {
		if _, ok := d.identities[profile.IdentityID]; !ok {
			return errors.Wrapf(repository.ErrIdentityNotFound, "profile for %s", profile.IdentityID)
		}
		if _, ok := d.profiles[profile.IdentityID]; ok {
			return domainerrors.NewIntegrityError("", "profiles_pkey", errors.New("profile already exists"))
		}
		if err := checkProfileUniqueness(d, profile); err != nil {
			return err
		}

		now := time.Now()
		profile.CreatedAt = now
		profile.UpdatedAt = now

		stored := copyProfile(profile)
		// Relation sets are written by SetRelations, as in the relational schema.
		stored.Common.Languages = nil
		clearPayloadRelations(stored)
		d.profiles[profile.IdentityID] = stored

		return nil
	})
}

func (repo *profileRepository) UpdateContact(_ context.Context, profile *entity.Profile) error {
	return repo.sess.write(func(d *dataset) error {
		current, ok := d.profiles[profile.IdentityID]
		if !ok {
			return repository.ErrProfileNotFound
		}
		if err := checkProfileUniqueness(d, profile); err != nil {
			return err
		}

		next := copyProfile(current)
		next.Common.PhoneNumber = profile.Common.PhoneNumber
		next.Common.Address = profile.Common.Address
		next.Common.City = profile.Common.City
		next.Common.Country = profile.Common.Country
		next.UpdatedAt = time.Now()
		d.profiles[profile.IdentityID] = next

		return nil
	})
}

func (repo *profileRepository) SetRelations(_ context.Context, identityID uuid.UUID, relations entity.ProfileRelations) error {
	return repo.sess.write(func(d *dataset) error {
		current, ok := d.profiles[identityID]
		if !ok {
			return repository.ErrProfileNotFound
		}

		if err := checkCodes(d.languages, relations.Languages, "language"); err != nil {
			return err
		}
		if err := checkCodes(d.intentions, relations.Intentions, "intention"); err != nil {
			return err
		}
		if err := checkCodes(d.categories, relations.Categories, "category"); err != nil {
			return err
		}

		next := copyProfile(current)
		next.Common.Languages = slices.Clone(relations.Languages)
		if next.Civilian != nil {
			next.Civilian.Intentions = slices.Clone(relations.Intentions)
		}
		if next.SupportProvider != nil {
			next.SupportProvider.Categories = slices.Clone(relations.Categories)
		}
		d.profiles[identityID] = next

		return nil
	})
}

func checkProfileUniqueness(d *dataset, profile *entity.Profile) error {
	for id, existing := range d.profiles {
		if id == profile.IdentityID {
			continue
		}
		if existing.Common.PhoneNumber == profile.Common.PhoneNumber {
			return domainerrors.NewIntegrityError("phone_number", "uq_profiles_phone_number", errors.New("duplicate phone number"))
		}
		c := profile.Common
		if sameIdentification(&existing.Common, c.IdentificationNumber, c.CountryOfIssue, c.IDType) {
			return domainerrors.NewIntegrityError(
				"identification_number", "uq_profiles_identification", errors.New("duplicate identification"),
			)
		}
	}

	return nil
}

func sameIdentification(c *entity.ProfileCommon, number, countryOfIssue string, idType entity.IDType) bool {
	return c.IdentificationNumber == number && c.CountryOfIssue == countryOfIssue && c.IDType == idType
}

func checkCodes(known map[string]struct{}, codes []string, kind string) error {
	for _, code := range codes {
		if _, ok := known[code]; !ok {
			return errors.Wrapf(repository.ErrUnknownReference, "%s %q", kind, code)
		}
	}

	return nil
}

func clearPayloadRelations(p *entity.Profile) {
	if p.Civilian != nil {
		p.Civilian.Intentions = nil
	}
	if p.SupportProvider != nil {
		p.SupportProvider.Categories = nil
	}
}

func copyProfile(p *entity.Profile) *entity.Profile {
	out := *p
	out.Common.Languages = slices.Clone(p.Common.Languages)
	if p.Common.ActiveUntil != nil {
		until := *p.Common.ActiveUntil
		out.Common.ActiveUntil = &until
	}
	if p.Civilian != nil {
		civilian := *p.Civilian
		civilian.Intentions = slices.Clone(p.Civilian.Intentions)
		out.Civilian = &civilian
	}
	if p.SupportProvider != nil {
		provider := *p.SupportProvider
		provider.Categories = slices.Clone(p.SupportProvider.Categories)
		out.SupportProvider = &provider
	}
	if p.Administrator != nil {
		admin := *p.Administrator
		out.Administrator = &admin
	}

	return &out
}
