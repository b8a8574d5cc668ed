package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
	"go.uber.org/zap"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/metrics"
	"github.com/accelrix/intern-service/internal/models"
	"github.com/accelrix/intern-service/internal/notify"
	"github.com/accelrix/intern-service/internal/storage"
)

var (
	// ErrMissingFields is returned when name, email, subject or message is blank
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidEmail is returned when the submitter address does not parse
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrStore wraps persistence failures
	ErrStore = errors.New("failed to save message")
	// ErrDelivery wraps mail transport failures. The message is already saved when it is returned.
	ErrDelivery = errors.New("failed to send mail")
)

// submission holds the trimmed fields that must be present
type submission struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,email"`
	Subject string `validate:"required"`
	Message string `validate:"required"`
}

// Service handles contact form submissions
type Service struct {
	storage     storage.Storage
	mailer      notify.Mailer
	validate    *validator.Validate
	from        mail.Address
	adminTo     string
	siteURL     string
	phoneRegion string
	banner      *notify.Attachment
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a contact service. banner may be nil.
func NewService(cfg config.MailConfig, store storage.Storage, mailer notify.Mailer, banner *notify.Attachment, logger *zap.Logger) *Service {
	return &Service{
		storage:     store,
		mailer:      mailer,
		validate:    validator.New(),
		from:        mail.Address{Name: cfg.FromName, Address: cfg.Username},
		adminTo:     cfg.AdminTo,
		siteURL:     cfg.SiteURL,
		phoneRegion: cfg.PhoneRegion,
		banner:      banner,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores msg, then notifies the team and the sender
func (s *Service) Submit(ctx context.Context, msg models.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)

	if err := s.check(msg); err != nil {
		metrics.ContactSubmissions.WithLabelValues("invalid").Inc()
		return err
	}
	msg.Phone = s.normalizePhone(msg.Phone)
	msg.CreatedAt = s.now()

	if err := s.storage.SaveContact(ctx, msg); err != nil {
		metrics.ContactSubmissions.WithLabelValues("store_error").Inc()
		s.logger.Error("failed to save contact message", zap.String("email", msg.Email), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	if err := s.notify(ctx, msg); err != nil {
		metrics.ContactSubmissions.WithLabelValues("mail_error").Inc()
		s.logger.Error("failed to send contact mail", zap.String("email", msg.Email), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	metrics.ContactSubmissions.WithLabelValues("ok").Inc()
	s.logger.Info("contact message handled", zap.String("email", msg.Email), zap.String("subject", msg.Subject))
	return nil
}

func (s *Service) check(msg models.ContactMessage) error {
	err := s.validate.Struct(submission{
		Name:    msg.Name,
		Email:   msg.Email,
		Subject: msg.Subject,
		Message: strings.TrimSpace(msg.Message),
	})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return ErrMissingFields
		}
	}
	return ErrInvalidEmail
}

// normalizePhone formats recognised numbers as E.164 and keeps anything else as typed
func (s *Service) normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	num, err := libphonenumber.Parse(phone, s.phoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		s.logger.Debug("keeping unrecognised phone number as given", zap.String("phone", phone))
		return phone
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

func (s *Service) notify(ctx context.Context, msg models.ContactMessage) error {
	admin, err := notify.AdminNotification(msg, s.from, s.adminTo)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, admin); err != nil {
		return fmt.Errorf("admin notification: %w", err)
	}

	reply, err := notify.AutoReply(msg, s.from, s.siteURL, s.banner)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, reply); err != nil {
		return fmt.Errorf("auto-reply: %w", err)
	}
	return nil
}
