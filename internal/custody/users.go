package custody

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"custody-go/internal/database/sqlc"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser registers an account. If the email already belongs to an
// anonymous user, that row is promoted so grants made to it are kept.
func (s *CustodyService) CreateUser(ctx context.Context, u NewUser) (*sqlc.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		return nil, fmt.Errorf("creating user: email is required: %w", ErrInvalidArgument)
	}
	u.Anonymous = false
	u.PasswordHash = ""
	if u.Password != "" {
		hash, err := hashPassword(u.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
		u.Password = ""
	}

	var user *sqlc.User
	err := s.inTx(ctx, func(tx *CustodyService) error {
		existing, err := tx.database.FindUserByEmail(ctx, u.Email)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			user, err = tx.database.CreateUser(ctx, u)
		case existing.Anonymous:
			user, err = tx.database.PromoteAnonymousUser(ctx, existing.ID, u)
		default:
			return fmt.Errorf("user %s: %w", u.Email, ErrUserExists)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", "id", user.ID, "email", user.Email)
	return user, nil
}

// CreateAnonymousUser returns the user with email, creating an anonymous
// placeholder if none exists.
func (s *CustodyService) CreateAnonymousUser(ctx context.Context, email string) (*sqlc.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("creating anonymous user: email is required: %w", ErrInvalidArgument)
	}
	existing, err := s.database.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	user, err := s.database.CreateUser(ctx, NewUser{Email: email, Role: RoleUser, Anonymous: true})
	if err != nil {
		return nil, err
	}
	s.logger.Info("anonymous user created", "id", user.ID, "email", email)
	return user, nil
}

func (s *CustodyService) GetUserByID(ctx context.Context, id string) (*sqlc.User, error) {
	user, err := s.database.FindUserByID(ctx, id)
	return required(user, err, "user %s", id)
}

func (s *CustodyService) GetUserByEmail(ctx context.Context, email string) (*sqlc.User, error) {
	user, err := s.database.FindUserByEmail(ctx, email)
	return required(user, err, "user %s", email)
}

func (s *CustodyService) GetUserByName(ctx context.Context, name string) (*sqlc.User, error) {
	user, err := s.database.FindUserByName(ctx, name)
	return required(user, err, "user %s", name)
}

func (s *CustodyService) GetUserByNIC(ctx context.Context, nic string) (*sqlc.User, error) {
	user, err := s.database.FindUserByNIC(ctx, nic)
	return required(user, err, "user with nic %s", nic)
}

// SetUserToken stores the bearer token issued to user.
func (s *CustodyService) SetUserToken(ctx context.Context, user *sqlc.User, token string) error {
	return s.database.SetUserToken(ctx, user.ID, token)
}

// SetPassword replaces the password of a registered user.
func (s *CustodyService) SetPassword(ctx context.Context, user *sqlc.User, password string) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("setting password: user has no id: %w", ErrIntegrity)
	}
	if user.Anonymous {
		return fmt.Errorf("setting password for %s: anonymous users cannot log in: %w", user.Email, ErrInvalidArgument)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.database.SetUserPasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	user.PasswordHash.String, user.PasswordHash.Valid = hash, true
	s.logger.Info("password changed", "id", user.ID, "email", user.Email)
	return nil
}

// VerifyPassword resolves an email and password to a registered account.
// Unknown emails, anonymous users, accounts without a password and wrong
// passwords all fail with ErrAuthentication.
func (s *CustodyService) VerifyPassword(ctx context.Context, email, password string) (*sqlc.User, error) {
	user, err := s.database.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Anonymous || !user.PasswordHash.Valid {
		return nil, fmt.Errorf("incorrect email or password: %w", ErrAuthentication)
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password))
	if err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("unreadable password hash", "id", user.ID, "error", err)
		}
		return nil, fmt.Errorf("incorrect email or password: %w", ErrAuthentication)
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty: %w", ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("password is longer than 72 bytes: %w", ErrInvalidArgument)
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// RegisterWithIdentity creates an account from a national-identity token.
func (s *CustodyService) RegisterWithIdentity(ctx context.Context, token, email string) (*sqlc.User, error) {
	nic, name, err := s.retrieveIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.CreateUser(ctx, NewUser{Email: email, Name: name, NIC: nic, Role: RoleUser})
}

// LoginWithIdentity resolves a national-identity token to an existing account.
func (s *CustodyService) LoginWithIdentity(ctx context.Context, token string) (*sqlc.User, error) {
	nic, _, err := s.retrieveIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUserByNIC(ctx, nic)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("no account for identity: %w: %w", ErrAuthentication, err)
	}
	return user, err
}

func (s *CustodyService) retrieveIdentity(ctx context.Context, token string) (string, string, error) {
	if s.identity == nil {
		return "", "", fmt.Errorf("identity login is not configured: %w", ErrAuthentication)
	}
	nic, name, err := s.identity.RetrieveIdentity(ctx, token)
	if err != nil {
		return "", "", fmt.Errorf("retrieving identity: %w: %w", ErrAuthentication, err)
	}
	if nic == "" {
		return "", "", fmt.Errorf("identity has no subject: %w", ErrAuthentication)
	}
	return nic, name, nil
}

// ensureCorrespondent registers user with the document store on first use.
func (s *CustodyService) ensureCorrespondent(ctx context.Context, user *sqlc.User) (string, error) {
	if user.ExternalID.Valid && user.ExternalID.String != "" {
		return user.ExternalID.String, nil
	}
	id, err := s.store.CreateCorrespondent(ctx, user.Email+"-"+user.ID)
	if err != nil {
		return "", fmt.Errorf("creating correspondent for %s: %w", user.Email, err)
	}
	if err := s.database.SetUserExternalID(ctx, user.ID, id); err != nil {
		return "", err
	}
	user.ExternalID.String, user.ExternalID.Valid = id, true
	return id, nil
}

// required turns the database's nil, nil into ErrNotFound.
func required[T any](row *T, err error, format string, args ...any) (*T, error) {
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return row, nil
}
