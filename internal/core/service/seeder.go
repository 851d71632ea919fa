package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

// SeedUser describes a demo account ensured at startup.
type SeedUser struct {
	Name     string
	Age      int
	Email    string
	Password string
	Role     string
}

var (
	DefaultSeedRoles = []string{domain.RoleAdmin, domain.RoleUser}
	DefaultSeedUsers = []SeedUser{
		{Name: "Admin User", Age: 30, Email: "admin@admin.com", Password: "admin", Role: domain.RoleAdmin},
		{Name: "Regular User", Age: 25, Email: "user@user.com", Password: "user", Role: domain.RoleUser},
		{Name: "Test User", Age: 28, Email: "test@test.com", Password: "test", Role: domain.RoleUser},
	}
)

// Seeder ensures the baseline roles and demo users exist. Run is idempotent and
// safe to call on every process start.
type Seeder struct {
	roles   ports.RoleRepository
	users   ports.UserRepository
	encoder ports.PasswordEncoder
	audit   AuditSink
	log     zerolog.Logger

	Roles []string
	Users []SeedUser
}

func NewSeeder(roles ports.RoleRepository, users ports.UserRepository, encoder ports.PasswordEncoder, audit AuditSink, log zerolog.Logger) *Seeder {
	if audit == nil {
		audit = DiscardAudit
	}
	return &Seeder{
		roles:   roles,
		users:   users,
		encoder: encoder,
		audit:   audit,
		log:     log,
		Roles:   DefaultSeedRoles,
		Users:   DefaultSeedUsers,
	}
}

// Run creates every missing seed role and seed user.
func (s *Seeder) Run(ctx context.Context) error {
	s.log.Info().Msg("starting data initialization")

	resolved := make(map[string]domain.Role, len(s.Roles))
	for _, name := range s.Roles {
		role, err := s.ensureRole(ctx, name)
		if err != nil {
			return err
		}
		resolved[name] = role
	}

	for _, su := range s.Users {
		role, ok := resolved[su.Role]
		if !ok {
			var err error
			if role, err = s.ensureRole(ctx, su.Role); err != nil {
				return err
			}
			resolved[su.Role] = role
		}
		if err := s.ensureUser(ctx, su, role); err != nil {
			return err
		}
	}

	s.log.Info().Msg("data initialization completed")
	return nil
}

// ensureRole returns the named role, creating it when the lookup fails for any
// reason.
func (s *Seeder) ensureRole(ctx context.Context, name string) (domain.Role, error) {
	role, err := s.roles.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		s.log.Warn().Err(err).Str("role", name).Msg("role lookup failed, creating role")
	}

	created, err := s.roles.Create(ctx, domain.Role{Name: name})
	if err != nil {
		// The role may exist after all; the first lookup only failed transiently.
		if role, lookupErr := s.roles.FindByName(ctx, name); lookupErr == nil {
			s.log.Info().Str("role", name).Msg("role already present")
			return role, nil
		}
		return domain.Role{}, fmt.Errorf("seed role %s: %w", name, err)
	}
	s.log.Info().Str("role", name).Uint("role_id", created.ID).Msg("created role")
	return created, nil
}

func (s *Seeder) ensureUser(ctx context.Context, su SeedUser, role domain.Role) error {
	exists, err := s.users.ExistsByEmail(ctx, su.Email)
	if err != nil {
		return fmt.Errorf("seed user %s: %w", su.Email, err)
	}
	if exists {
		s.log.Debug().Str("email", su.Email).Msg("seed user already present")
		return nil
	}

	hash, ok := s.encoder.DefaultHash(su.Password)
	if !ok {
		if hash, err = s.encoder.Encode(su.Password); err != nil {
			return fmt.Errorf("seed user %s: %w", su.Email, err)
		}
	}

	created, err := s.users.Create(ctx, domain.User{
		Name:         su.Name,
		Age:          su.Age,
		Email:        su.Email,
		PasswordHash: hash,
		Roles:        []domain.Role{role},
	})
	if err != nil {
		return fmt.Errorf("seed user %s: %w", su.Email, err)
	}

	s.audit.Record(domain.UserEvent{
		Type:            domain.UserCreated,
		UserID:          created.ID,
		Email:           created.Email,
		Roles:           created.RoleNames(),
		Source:          domain.SourceSeed,
		PasswordChanged: true,
		OccurredAt:      time.Now().UTC(),
	})
	s.log.Info().Str("name", su.Name).Str("email", su.Email).Msg("created user")
	return nil
}

// MigratePasswords encodes every stored password that is not yet a hash and
// returns the number of rows rewritten. Any bcrypt variant counts as a hash,
// so imported $2b$/$2y$ hashes keep verifying.
func (s *Seeder) MigratePasswords(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate passwords: %w", err)
	}

	migrated := 0
	for _, u := range users {
		if s.encoder.IsHash(u.PasswordHash) {
			continue
		}
		if strings.TrimSpace(u.PasswordHash) == "" {
			s.log.Warn().Uint("user_id", u.ID).Str("email", u.Email).Msg("user has an empty password, skipping")
			continue
		}

		hash, err := s.encoder.Encode(u.PasswordHash)
		if err != nil {
			return migrated, fmt.Errorf("migrate password of %s: %w", u.Email, err)
		}
		if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
			return migrated, fmt.Errorf("migrate password of %s: %w", u.Email, err)
		}
		migrated++

		s.audit.Record(domain.UserEvent{
			Type:            domain.UserPasswordMigrated,
			UserID:          u.ID,
			Email:           u.Email,
			Roles:           u.RoleNames(),
			Source:          domain.SourceMigration,
			PasswordChanged: true,
			OccurredAt:      time.Now().UTC(),
		})
		s.log.Info().Uint("user_id", u.ID).Str("email", u.Email).Msg("password encoded")
	}

	if migrated > 0 {
		s.log.Info().Int("count", migrated).Msg("password migration completed")
	}
	return migrated, nil
}
