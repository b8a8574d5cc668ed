package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS interns (
	intern_id                      TEXT PRIMARY KEY,
	email                          TEXT,
	full_name                      TEXT,
	gender                         TEXT,
	mobile_number                  TEXT,
	internship_track               TEXT,
	highest_academic_qualification TEXT,
	college_name                   TEXT,
	passing_year                   INTEGER,
	country                        TEXT,
	joined_linkedin                TEXT,
	questions                      TEXT,
	start_date                     DATE,
	end_date                       DATE,
	issue_date                     DATE,
	offer_letter_sent_status       TEXT,
	internship_completed           TEXT,
	certificate_sent_status        TEXT,
	created_at                     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	phone      TEXT,
	subject    TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// internColumns maps record fields onto their column names
var internColumns = map[string]string{
	models.FieldEmail:                        "email",
	models.FieldFullName:                     "full_name",
	models.FieldGender:                       "gender",
	models.FieldMobileNumber:                 "mobile_number",
	models.FieldInternshipTrack:              "internship_track",
	models.FieldHighestAcademicQualification: "highest_academic_qualification",
	models.FieldCollegeName:                  "college_name",
	models.FieldPassingYear:                  "passing_year",
	models.FieldCountry:                      "country",
	models.FieldJoinedLinkedIn:               "joined_linkedin",
	models.FieldQuestions:                    "questions",
	models.FieldStartDate:                    "start_date",
	models.FieldEndDate:                      "end_date",
	models.FieldIssueDate:                    "issue_date",
	models.FieldOfferLetterSentStatus:        "offer_letter_sent_status",
	models.FieldInternshipCompleted:          "internship_completed",
	models.FieldCertificateSentStatus:        "certificate_sent_status",
}

// PostgreSQLStorage implements Storage interface using PostgreSQL
type PostgreSQLStorage struct {
	db *sql.DB
}

// NewPostgreSQLStorage opens the database and creates the tables if needed
func NewPostgreSQLStorage(ctx context.Context, cfg config.StorageConfig) (*PostgreSQLStorage, error) {
	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(connectCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	if _, err := db.ExecContext(connectCtx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgreSQLStorage{db: db}, nil
}

// UpsertInterns runs one INSERT ... ON CONFLICT per element. Constraint and
// data errors on an element are recorded and the batch goes on; any other
// error aborts it.
func (p *PostgreSQLStorage) UpsertInterns(ctx context.Context, upserts []models.InternUpsert) (*models.BulkResult, error) {
	result := &models.BulkResult{}
	now := time.Now().UTC()

	for _, u := range upserts {
		query, args, err := buildUpsertSQL(u, now)
		if err != nil {
			result.Failures = append(result.Failures, models.ElementError{Index: u.Index, InternID: u.InternID, Message: err.Error()})
			continue
		}

		var inserted bool
		err = p.db.QueryRowContext(ctx, query, args...).Scan(&inserted)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Conflict with nothing to change.
			result.MatchedCount++
		case err != nil:
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				result.Failures = append(result.Failures, models.ElementError{Index: u.Index, InternID: u.InternID, Message: pqErr.Message})
				continue
			}
			return nil, fmt.Errorf("failed to upsert intern %s: %w", u.InternID, err)
		case inserted:
			result.UpsertedCount++
		default:
			result.MatchedCount++
			result.ModifiedCount++
		}
	}

	return result, nil
}

// buildUpsertSQL returns a statement that yields one row (inserted = xmax = 0)
// when it wrote, and no row when the key existed with identical values.
func buildUpsertSQL(u models.InternUpsert, now time.Time) (string, []interface{}, error) {
	cols := make([]string, 0, len(u.Set))
	args := []interface{}{u.InternID, now}
	placeholders := []string{"$1", "$2"}

	for _, f := range u.Set {
		col, ok := internColumns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown field %s", f.Field)
		}
		cols = append(cols, col)
		args = append(args, f.Value)
		placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO interns (intern_id, created_at")
	for _, c := range cols {
		b.WriteString(", " + c)
	}
	b.WriteString(") VALUES (" + strings.Join(placeholders, ", ") + ") ON CONFLICT (intern_id) ")

	if len(cols) == 0 {
		b.WriteString("DO NOTHING RETURNING true")
		return b.String(), args, nil
	}

	current := make([]string, len(cols))
	excluded := make([]string, len(cols))
	assignments := make([]string, len(cols))
	for i, c := range cols {
		current[i] = "interns." + c
		excluded[i] = "EXCLUDED." + c
		assignments[i] = c + " = EXCLUDED." + c
	}
	b.WriteString("DO UPDATE SET " + strings.Join(assignments, ", "))
	b.WriteString(" WHERE (" + strings.Join(current, ", ") + ") IS DISTINCT FROM (" + strings.Join(excluded, ", ") + ")")
	b.WriteString(" RETURNING (xmax = 0)")

	return b.String(), args, nil
}

const selectIntern = `SELECT intern_id, email, full_name, gender, mobile_number, internship_track,
	highest_academic_qualification, college_name, passing_year, country, joined_linkedin, questions,
	start_date, end_date, issue_date, offer_letter_sent_status, internship_completed,
	certificate_sent_status, created_at
FROM interns WHERE intern_id = $1`

// GetInternByID retrieves a specific record by internId
func (p *PostgreSQLStorage) GetInternByID(ctx context.Context, internID string) (*models.InternshipRecord, error) {
	var rec models.InternshipRecord
	var email, fullName, gender, mobile, track, qual sql.NullString
	var college, country, linkedIn, questions sql.NullString
	var offerSent, completed, certSent sql.NullString
	var passingYear sql.NullInt64
	var startDate, endDate, issueDate sql.NullTime

	err := p.db.QueryRowContext(ctx, selectIntern, internID).Scan(
		&rec.InternID, &email, &fullName, &gender, &mobile, &track,
		&qual, &college, &passingYear, &country, &linkedIn, &questions,
		&startDate, &endDate, &issueDate, &offerSent, &completed,
		&certSent, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intern %s: %w", internID, err)
	}

	rec.Email = email.String
	rec.FullName = fullName.String
	rec.Gender = gender.String
	rec.MobileNumber = mobile.String
	rec.InternshipTrack = track.String
	rec.HighestAcademicQualification = qual.String
	rec.CollegeName = college.String
	rec.Country = country.String
	rec.JoinedLinkedIn = linkedIn.String
	rec.Questions = questions.String
	rec.OfferLetterSentStatus = offerSent.String
	rec.InternshipCompleted = completed.String
	rec.CertificateSentStatus = certSent.String
	if passingYear.Valid {
		year := int(passingYear.Int64)
		rec.PassingYear = &year
	}
	rec.StartDate = nullTime(startDate)
	rec.EndDate = nullTime(endDate)
	rec.IssueDate = nullTime(issueDate)

	return &rec, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// SaveContact stores a contact form submission
func (p *PostgreSQLStorage) SaveContact(ctx context.Context, msg models.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO contacts (name, email, phone, subject, message, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Message, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}

// Ping checks the connection
func (p *PostgreSQLStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database handle
func (p *PostgreSQLStorage) Close() error {
	return p.db.Close()
}
