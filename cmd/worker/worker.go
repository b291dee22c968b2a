package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/uyho/backend/internal/models"
)

// Mailer sends a single HTML message
type Mailer interface {
	// Send delivers an HTML e-mail
	//
	// "to" is the recipient address, "subject" and "body" are the message parts.
	//
	// If the SMTP exchange fails, the error will be returned.
	Send(to, subject, body string) error
}

// RatingRefresher reconciles stored course rating aggregates
type RatingRefresher interface {
	// RefreshAggregates recomputes drifted course aggregates and returns how many changed
	RefreshAggregates(ctx context.Context) (int, error)
}

// smtpMailer sends mail through gopkg.in/mail.v2
type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer for the configured SMTP server
func NewSMTPMailer(host string, port int, username, password, from string) *smtpMailer {
	return &smtpMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send sends an email using gopkg.in/mail.v2
func (m *smtpMailer) Send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var certificateEmail = template.Must(template.New("certificate").Parse(
	`<p>Congratulations!</p>` +
		`<p>You passed <strong>{{.CourseTitle}}</strong> with a score of {{.Score}}%.</p>` +
		`<p>Your certificate code is <strong>{{.Code}}</strong>. ` +
		`Anyone can verify it on the UYHO certificate verification page.</p>`,
))

// Worker handles background task processing
type Worker struct {
	logger    *zap.Logger
	mailer    Mailer
	refresher RatingRefresher
	cron      *cron.Cron
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, mailer Mailer, refresher RatingRefresher) *Worker {
	return &Worker{
		logger:    logger,
		mailer:    mailer,
		refresher: refresher,
		cron:      cron.New(),
	}
}

// HandleCertificateIssued sends the certificate notification e-mail
func (w *Worker) HandleCertificateIssued(ctx context.Context, t *asynq.Task) error {
	var payload models.CertificateIssuedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads never succeed, so skip retries
		return fmt.Errorf("failed to parse payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.Recipient) == "" {
		w.logger.Warn("certificate notification without recipient", zap.String("code", payload.Code))
		return nil
	}

	var body strings.Builder
	if err := certificateEmail.Execute(&body, payload); err != nil {
		return fmt.Errorf("failed to render email: %v: %w", err, asynq.SkipRetry)
	}

	subject := fmt.Sprintf("Your UYHO certificate for %s", payload.CourseTitle)
	if err := w.mailer.Send(payload.Recipient, subject, body.String()); err != nil {
		return err
	}

	w.logger.Info("Certificate notification sent", zap.String("code", payload.Code))
	return nil
}

// refreshRatings runs one rating reconciliation pass
func (w *Worker) refreshRatings() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	changed, err := w.refresher.RefreshAggregates(ctx)
	if err != nil {
		w.logger.Error("Rating refresh failed", zap.Error(err))
		return
	}
	w.logger.Info("Rating refresh finished", zap.Int("changed_courses", changed))
}

// ScheduleRatingRefresh registers the rating reconciliation job under the given cron spec
func (w *Worker) ScheduleRatingRefresh(spec string) error {
	if _, err := w.cron.AddFunc(spec, w.refreshRatings); err != nil {
		return fmt.Errorf("invalid rating refresh schedule %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler
func (w *Worker) Start() {
	w.cron.Start()
}

// Stop stops the cron scheduler and waits for a running job
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
}
