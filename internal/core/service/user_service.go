package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

// AuditSink receives user mutation events. Implementations must not block the
// caller on persistence.
type AuditSink interface {
	Record(event domain.UserEvent)
}

type discardAudit struct{}

func (discardAudit) Record(domain.UserEvent) {}

// DiscardAudit drops every event. Used when no audit store is configured.
var DiscardAudit AuditSink = discardAudit{}

// UserService implements user creation, update and removal on top of the user
// store and the role directory.
type UserService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	encoder  ports.PasswordEncoder
	sessions ports.SessionStore
	audit    AuditSink
	log      zerolog.Logger
}

// NewUserService wires the service. sessions may be nil, in which case deleted
// users keep their sessions until the tokens expire.
func NewUserService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	encoder ports.PasswordEncoder,
	sessions ports.SessionStore,
	audit AuditSink,
	log zerolog.Logger,
) *UserService {
	if audit == nil {
		audit = DiscardAudit
	}
	return &UserService{
		users:    users,
		roles:    roles,
		encoder:  encoder,
		sessions: sessions,
		audit:    audit,
		log:      log,
	}
}

// Create adds a user on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (domain.User, error) {
	roles, err := s.resolveRoles(ctx, in.RoleIDs)
	if err != nil {
		return domain.User{}, err
	}
	return s.create(ctx, in, roles, domain.SourceAdmin)
}

// Register adds a self-registered user holding ROLE_USER only.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (domain.User, error) {
	role, err := s.roles.FindByName(ctx, domain.RoleUser)
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	return s.create(ctx, ports.CreateUserInput{
		Name:     in.Name,
		Age:      in.Age,
		Email:    in.Email,
		Password: in.Password,
	}, []domain.Role{role}, domain.SourceRegister)
}

func (s *UserService) create(ctx context.Context, in ports.CreateUserInput, roles []domain.Role, source string) (domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email must not be empty", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Password) == "" {
		return domain.User{}, fmt.Errorf("%w: password must not be empty", domain.ErrValidation)
	}
	if in.Age < 0 {
		return domain.User{}, fmt.Errorf("%w: age must not be negative", domain.ErrValidation)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		s.log.Warn().Str("email", email).Msg("user with this email already exists")
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserExists, email)
	}

	hash, err := s.encoder.Encode(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	if len(roles) == 0 {
		role, err := s.roles.FindByName(ctx, domain.RoleUser)
		if err != nil {
			return domain.User{}, fmt.Errorf("resolve default role: %w", err)
		}
		roles = []domain.Role{role}
	}

	created, err := s.users.Create(ctx, domain.User{
		Name:         strings.TrimSpace(in.Name),
		Age:          in.Age,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	})
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("failed to save user")
		return domain.User{}, err
	}

	s.audit.Record(domain.UserEvent{
		Type:            domain.UserCreated,
		UserID:          created.ID,
		Email:           created.Email,
		Roles:           created.RoleNames(),
		Source:          source,
		PasswordChanged: true,
		OccurredAt:      time.Now().UTC(),
	})
	s.log.Info().Uint("user_id", created.ID).Str("email", created.Email).Str("source", source).Msg("user created")
	return created, nil
}

// Update merges the candidate state into the stored user.
//
// A blank password keeps the stored hash and an already encoded password is
// stored verbatim, so a form round-trip never re-hashes a hash. An empty role
// set keeps the current roles; a non-empty one replaces them. Changing the
// password or the roles revokes the user's sessions.
func (s *UserService) Update(ctx context.Context, in ports.UpdateUserInput) (domain.User, error) {
	if in.ID == 0 {
		return domain.User{}, fmt.Errorf("%w: user id is required for update", domain.ErrValidation)
	}

	existing, err := s.users.FindByID(ctx, in.ID)
	if err != nil {
		return domain.User{}, err
	}

	merged := existing
	if name := strings.TrimSpace(in.Name); name != "" {
		merged.Name = name
	}
	if in.Age != nil {
		if *in.Age < 0 {
			return domain.User{}, fmt.Errorf("%w: age must not be negative", domain.ErrValidation)
		}
		merged.Age = *in.Age
	}
	if email := strings.TrimSpace(in.Email); email != "" && email != existing.Email {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return domain.User{}, err
		}
		if taken {
			return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserExists, email)
		}
		merged.Email = email
	}

	hash, passwordChanged, err := s.mergePassword(in.Password, existing.PasswordHash)
	if err != nil {
		return domain.User{}, err
	}
	merged.PasswordHash = hash

	roles, rolesReplaced, err := s.mergeRoles(ctx, in.RoleIDs, existing)
	if err != nil {
		return domain.User{}, err
	}
	merged.Roles = roles

	updated, err := s.users.Update(ctx, merged)
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", in.ID).Msg("failed to update user")
		return domain.User{}, err
	}

	// Tokens carry the role set, so outstanding sessions must not outlive it.
	if passwordChanged || rolesReplaced {
		s.revokeSessions(ctx, updated.ID, "updated")
	}

	s.audit.Record(domain.UserEvent{
		Type:            domain.UserUpdated,
		UserID:          updated.ID,
		Email:           updated.Email,
		Roles:           updated.RoleNames(),
		Source:          domain.SourceAdmin,
		PasswordChanged: passwordChanged,
		RolesReplaced:   rolesReplaced,
		OccurredAt:      time.Now().UTC(),
	})
	s.log.Info().
		Uint("user_id", updated.ID).
		Str("email", updated.Email).
		Bool("password_changed", passwordChanged).
		Bool("roles_replaced", rolesReplaced).
		Msg("user updated")
	return updated, nil
}

func (s *UserService) mergePassword(candidate, current string) (string, bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return current, false, nil
	}
	if s.encoder.IsEncoded(candidate) {
		return candidate, candidate != current, nil
	}
	hash, err := s.encoder.Encode(candidate)
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

func (s *UserService) mergeRoles(ctx context.Context, ids []uint, existing domain.User) ([]domain.Role, bool, error) {
	if len(ids) == 0 {
		s.log.Debug().Str("email", existing.Email).Msg("no roles provided, keeping existing roles")
		return existing.Roles, false, nil
	}
	roles, err := s.resolveRoles(ctx, ids)
	if err != nil {
		return nil, false, err
	}
	if len(roles) == 0 {
		s.log.Warn().Str("email", existing.Email).Interface("role_ids", ids).Msg("none of the submitted roles exist, keeping existing roles")
		return existing.Roles, false, nil
	}
	return roles, true, nil
}

// revokeSessions logs out every session of the user. Failures are logged, not
// returned.
func (s *UserService) revokeSessions(ctx context.Context, id uint, reason string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.DeleteAll(ctx, id); err != nil {
		s.log.Warn().Err(err).Uint("user_id", id).Str("reason", reason).Msg("failed to revoke user sessions")
	}
}

// resolveRoles maps role ids onto the role directory. Unknown ids are skipped.
func (s *UserService) resolveRoles(ctx context.Context, ids []uint) ([]domain.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	all, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	roles := make([]domain.Role, 0, len(ids))
	for _, r := range all {
		if _, ok := wanted[r.ID]; ok {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

// Delete removes a user and revokes its sessions.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: user id is required for delete", domain.ErrValidation)
	}
	existing, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).Uint("user_id", id).Msg("failed to delete user")
		return err
	}

	s.revokeSessions(ctx, id, "deleted")

	s.audit.Record(domain.UserEvent{
		Type:       domain.UserDeleted,
		UserID:     id,
		Email:      existing.Email,
		Roles:      existing.RoleNames(),
		Source:     domain.SourceAdmin,
		OccurredAt: time.Now().UTC(),
	})
	s.log.Info().Uint("user_id", id).Str("email", existing.Email).Msg("user deleted")
	return nil
}

func (s *UserService) Get(ctx context.Context, id uint) (domain.User, error) {
	if id == 0 {
		return domain.User{}, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users.FindByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("count", len(users)).Msg("listed users")
	return users, nil
}

func (s *UserService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}
	return s.users.ExistsByEmail(ctx, email)
}

// RoleService is a thin read-only view of the role directory.
type RoleService struct {
	roles ports.RoleRepository
}

func NewRoleService(roles ports.RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *RoleService) GetByName(ctx context.Context, name string) (domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Role{}, domain.ErrRoleNotFound
	}
	return s.roles.FindByName(ctx, name)
}
