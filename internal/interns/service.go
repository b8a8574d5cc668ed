package interns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/metrics"
	"github.com/accelrix/intern-service/internal/models"
	"github.com/accelrix/intern-service/internal/storage"
)

var (
	// ErrEmptyBatch is returned when a reconcile call carries no documents
	ErrEmptyBatch = errors.New("documents must be a non-empty array")
	// ErrMissingID is returned by Verify for a blank intern id
	ErrMissingID = errors.New("intern id is required")
	// ErrNotFound is returned by Verify when no record has the id
	ErrNotFound = errors.New("intern not found")
	// ErrStore wraps failures of the underlying store
	ErrStore = errors.New("store operation failed")
)

// dateLayouts are tried in order when normalizing date fields
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Service reconciles intern record batches and serves verification lookups
type Service struct {
	storage storage.Storage
	logger  *zap.Logger
}

// NewService creates a new intern records service
func NewService(store storage.Storage, logger *zap.Logger) *Service {
	return &Service{
		storage: store,
		logger:  logger,
	}
}

// Reconcile upserts every valid document keyed on internId. Documents that
// fail validation are reported in the result and do not stop their siblings.
func (s *Service) Reconcile(ctx context.Context, documents []json.RawMessage) (*models.BatchResult, error) {
	if len(documents) == 0 {
		metrics.ReconcileBatches.WithLabelValues("invalid").Inc()
		return nil, ErrEmptyBatch
	}

	upserts := make([]models.InternUpsert, 0, len(documents))
	result := &models.BatchResult{}

	for i, doc := range documents {
		u, err := normalize(i, doc)
		if err != nil {
			result.Errors = append(result.Errors, models.ElementError{Index: i, InternID: u.InternID, Message: err.Error()})
			continue
		}
		upserts = append(upserts, u)
	}

	if len(upserts) > 0 {
		bulk, err := s.storage.UpsertInterns(ctx, upserts)
		if err != nil {
			metrics.ReconcileBatches.WithLabelValues("error").Inc()
			s.logger.Error("bulk upsert failed",
				zap.Int("documents", len(documents)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}

		result.MatchedCount = bulk.MatchedCount
		result.ModifiedCount = bulk.ModifiedCount
		result.UpsertedCount = bulk.UpsertedCount
		result.Errors = append(result.Errors, bulk.Failures...)
	}

	sort.SliceStable(result.Errors, func(a, b int) bool {
		return result.Errors[a].Index < result.Errors[b].Index
	})

	metrics.ReconcileBatches.WithLabelValues("ok").Inc()
	metrics.ReconcileRecords.WithLabelValues("matched").Add(float64(result.MatchedCount))
	metrics.ReconcileRecords.WithLabelValues("modified").Add(float64(result.ModifiedCount))
	metrics.ReconcileRecords.WithLabelValues("upserted").Add(float64(result.UpsertedCount))
	metrics.ReconcileRecords.WithLabelValues("failed").Add(float64(len(result.Errors)))

	s.logger.Info("bulk upsert applied",
		zap.Int("documents", len(documents)),
		zap.Int64("matched", result.MatchedCount),
		zap.Int64("modified", result.ModifiedCount),
		zap.Int64("upserted", result.UpsertedCount),
		zap.Int("failed", len(result.Errors)),
	)
	for _, e := range result.Errors {
		s.logger.Warn("document rejected",
			zap.Int("index", e.Index),
			zap.String("intern_id", e.InternID),
			zap.String("reason", e.Message),
		)
	}

	return result, nil
}

// Verify returns the public view of the record with the given internId
func (s *Service) Verify(ctx context.Context, internID string) (*models.PublicRecordView, error) {
	if strings.TrimSpace(internID) == "" {
		metrics.VerifyLookups.WithLabelValues("invalid").Inc()
		return nil, ErrMissingID
	}

	rec, err := s.storage.GetInternByID(ctx, internID)
	if err != nil {
		metrics.VerifyLookups.WithLabelValues("error").Inc()
		s.logger.Error("intern lookup failed", zap.String("intern_id", internID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if rec == nil {
		metrics.VerifyLookups.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	metrics.VerifyLookups.WithLabelValues("found").Inc()
	view := rec.PublicView()
	return &view, nil
}

// normalize validates one document and converts it to an upsert. The
// returned upsert carries the internId even on error when one was readable.
func normalize(index int, doc json.RawMessage) (models.InternUpsert, error) {
	u := models.InternUpsert{Index: index}

	raw, err := models.DecodeRawRecord(doc)
	if err != nil {
		var id struct {
			InternID string `json:"internId"`
		}
		if json.Unmarshal(doc, &id) == nil {
			u.InternID = id.InternID
		}
		return u, fmt.Errorf("invalid document: %w", err)
	}
	if raw.InternID == nil || strings.TrimSpace(*raw.InternID) == "" {
		return u, errors.New("internId is required")
	}
	u.InternID = *raw.InternID

	setString := func(field string, v *string) {
		if v != nil {
			u.Set = append(u.Set, models.FieldValue{Field: field, Value: *v})
		}
	}
	setString(models.FieldEmail, raw.Email)
	setString(models.FieldFullName, raw.FullName)
	setString(models.FieldGender, raw.Gender)
	setString(models.FieldMobileNumber, raw.MobileNumber)
	setString(models.FieldInternshipTrack, raw.InternshipTrack)
	setString(models.FieldHighestAcademicQualification, raw.HighestAcademicQualification)
	setString(models.FieldCollegeName, raw.CollegeName)
	setString(models.FieldCountry, raw.Country)
	setString(models.FieldJoinedLinkedIn, raw.JoinedLinkedIn)
	setString(models.FieldQuestions, raw.Questions)
	setString(models.FieldOfferLetterSentStatus, raw.OfferLetterSentStatus)
	setString(models.FieldInternshipCompleted, raw.InternshipCompleted)
	setString(models.FieldCertificateSentStatus, raw.CertificateSentStatus)

	if raw.PassingYear != nil && !raw.PassingYear.Empty {
		u.Set = append(u.Set, models.FieldValue{Field: models.FieldPassingYear, Value: raw.PassingYear.Value})
	}

	dates := []struct {
		field string
		value *string
	}{
		{models.FieldStartDate, raw.StartDate},
		{models.FieldEndDate, raw.EndDate},
		{models.FieldIssueDate, raw.IssueDate},
	}
	for _, d := range dates {
		// Absent or empty dates leave the stored value alone.
		if d.value == nil || strings.TrimSpace(*d.value) == "" {
			continue
		}
		t, err := ParseDate(*d.value)
		if err != nil {
			return u, fmt.Errorf("invalid %s: %w", d.field, err)
		}
		u.Set = append(u.Set, models.FieldValue{Field: d.field, Value: t})
	}

	return u, nil
}

// ParseDate parses a calendar date and returns it as midnight UTC. Timestamps
// are accepted; their date is taken in the offset they were written with.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
