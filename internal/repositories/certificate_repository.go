package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/uyho/backend/internal/models"
)

// ErrDuplicateCode is returned when a certificate code is already held by another certificate
var ErrDuplicateCode = errors.New("certificate code already in use")

// ErrAlreadyIssued is returned when the enrollment got a certificate concurrently
var ErrAlreadyIssued = errors.New("certificate already issued for enrollment")

const mysqlDuplicateEntry = 1062

// certificateRepository implements CertificateRepository
type certificateRepository struct {
	db *sql.DB
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(db *sql.DB) *certificateRepository {
	return &certificateRepository{
		db: db,
	}
}

const certificateColumns = "id, enrollment_id, user_id, course_id, code, score, issued_at"

func scanCertificate(row *sql.Row) (*models.Certificate, error) {
	var c models.Certificate
	err := row.Scan(&c.ID, &c.EnrollmentID, &c.UserID, &c.CourseID, &c.Code, &c.Score, &c.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByEnrollment retrieves the certificate of an enrollment, nil when none was issued
func (r *certificateRepository) GetByEnrollment(ctx context.Context, enrollmentId int) (*models.Certificate, error) {
	query := "SELECT " + certificateColumns + " FROM certificates WHERE enrollment_id = ?"

	c, err := scanCertificate(r.db.QueryRowContext(ctx, query, enrollmentId))
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate by enrollment: %w", err)
	}
	return c, nil
}

// GetByCode retrieves a certificate by its code, nil when the code is unknown
func (r *certificateRepository) GetByCode(ctx context.Context, code string) (*models.Certificate, error) {
	query := "SELECT " + certificateColumns + " FROM certificates WHERE code = ?"

	c, err := scanCertificate(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate by code: %w", err)
	}
	return c, nil
}

// Create stores a certificate and marks its enrollment as passed in one transaction
//
// ErrDuplicateCode is returned when the code belongs to another certificate,
// ErrAlreadyIssued when the enrollment already holds one.
func (r *certificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO certificates (enrollment_id, user_id, course_id, code, score, issued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, insertQuery, cert.EnrollmentID, cert.UserID, cert.CourseID, cert.Code, cert.Score, cert.IssuedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			if strings.Contains(mysqlErr.Message, "uq_certificates_enrollment") {
				return ErrAlreadyIssued
			}
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert certificate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get certificate ID: %w", err)
	}
	cert.ID = int(id)

	updateQuery := `
		UPDATE enrollments
		SET has_passed = TRUE, is_completed = TRUE, progress = 100, certificate_code = ?, updated_at = NOW()
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, updateQuery, cert.Code, cert.EnrollmentID); err != nil {
		return fmt.Errorf("failed to mark enrollment passed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
