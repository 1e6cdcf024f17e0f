package database

import (
	"database/sql"

	"github.com/gatherly/app/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser hashes the password and inserts a new user. Email and SMS
// notification opt-ins default to true.
func (s *Store) CreateUser(name, email, phone, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		"INSERT INTO users(id, name, email, phone, password_hash) VALUES(?, ?, ?, ?, ?)",
		id, name, email, phone, string(hashedPassword),
	)
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(id)
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(
		"SELECT id, name, email, phone, password_hash, email_opt_in, sms_opt_in, created_at FROM users WHERE email = ?",
		email,
	)
	return scanUser(row)
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(id string) (*models.User, error) {
	row := s.db.QueryRow(
		"SELECT id, name, email, phone, password_hash, email_opt_in, sms_opt_in, created_at FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash,
		&user.EmailOptIn, &user.SMSOptIn, &user.CreatedAt,
	)
	if err != nil {
		return nil, err // includes sql.ErrNoRows if not found
	}
	return user, nil
}

// VerifyPassword compares a stored hashed password with a plaintext password.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
