package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned when a user lookup yields no results.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when registering a duplicate username or email.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidCredentials is returned when authentication fails. The same
// error covers unknown usernames and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User represents a registered account.
type User struct {
	ID            uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	PreferredLang string
	CreatedAt     time.Time
}

// UserRepository provides user persistence operations.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a UserRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create registers a new user with a bcrypt-hashed password.
//
// Precondition: username, email, and password must be non-empty.
// Postcondition: Returns the created user with ID set, or ErrUserExists on a
// duplicate username or email.
func (r *UserRepository) Create(ctx context.Context, username, email, password, preferredLang string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	if preferredLang == "" {
		preferredLang = "en"
	}

	var u User
	err = r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, preferred_lang)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, password_hash, preferred_lang, created_at`,
		username, email, string(hash), preferredLang,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PreferredLang, &u.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &u, nil
}

// Authenticate verifies a username and password pair.
//
// Postcondition: Returns the user on success, or ErrInvalidCredentials for
// unknown usernames and wrong passwords alike.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := r.getBy(ctx, "username", username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
//
// Postcondition: Returns the user or ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, preferred_lang, created_at
		 FROM users WHERE `+column+` = $1`,
		value,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PreferredLang, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by %s: %w", column, err)
	}
	return &u, nil
}
