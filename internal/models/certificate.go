package models

import "time"

// PassThreshold is the minimum quiz score that earns a certificate
const PassThreshold = 70

// Certificate is the award issued for one enrollment
type Certificate struct {
	ID           int       `json:"id"`
	EnrollmentID int       `json:"enrollmentId"`
	UserID       int       `json:"userId"`
	CourseID     int       `json:"courseId"`
	Code         string    `json:"code"`
	Score        int       `json:"score"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// IssueCertificateRequest represents a request to persist a certificate award
type IssueCertificateRequest struct {
	LearnerID       int    `json:"learnerId"`
	Score           int    `json:"score"`
	CertificateCode string `json:"certificateCode"`
}

// IssueCertificateResponse carries the code the server stored, which may differ from the proposed one
type IssueCertificateResponse struct {
	CertificateCode string `json:"certificateCode"`
}

// CertificateVerification is the public result of a certificate code lookup
type CertificateVerification struct {
	Valid       bool                `json:"valid"`
	Code        string              `json:"code"`
	HolderID    int                 `json:"holderId,omitempty"`
	CourseID    int                 `json:"courseId,omitempty"`
	CourseTitle string              `json:"courseTitle,omitempty"`
	Template    CertificateTemplate `json:"template,omitempty"`
	Score       int                 `json:"score,omitempty"`
	IssuedAt    *time.Time          `json:"issuedAt,omitempty"`
}

// CertificateIssuedPayload is the task payload for certificate notification e-mails
type CertificateIssuedPayload struct {
	Code        string `json:"code"`
	CourseTitle string `json:"courseTitle"`
	Recipient   string `json:"recipient"`
	Score       int    `json:"score"`
}

// TaskCertificateIssued is the task type of certificate notification e-mails
const TaskCertificateIssued = "certificate:issued"
