package models

import "time"

// InternshipRecord represents one program participant as stored
type InternshipRecord struct {
	InternID                     string     `json:"internId" bson:"internId"`
	Email                        string     `json:"email,omitempty" bson:"email,omitempty"`
	FullName                     string     `json:"fullName,omitempty" bson:"fullName,omitempty"`
	Gender                       string     `json:"gender,omitempty" bson:"gender,omitempty"`
	MobileNumber                 string     `json:"mobileNumber,omitempty" bson:"mobileNumber,omitempty"`
	InternshipTrack              string     `json:"internshipTrack,omitempty" bson:"internshipTrack,omitempty"`
	HighestAcademicQualification string     `json:"highestAcademicQualification,omitempty" bson:"highestAcademicQualification,omitempty"`
	CollegeName                  string     `json:"collegeName,omitempty" bson:"collegeName,omitempty"`
	PassingYear                  *int       `json:"passingYear,omitempty" bson:"passingYear,omitempty"`
	Country                      string     `json:"country,omitempty" bson:"country,omitempty"`
	JoinedLinkedIn               string     `json:"joinedLinkedIn,omitempty" bson:"joinedLinkedIn,omitempty"`
	Questions                    string     `json:"questions,omitempty" bson:"questions,omitempty"`
	StartDate                    *time.Time `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate                      *time.Time `json:"endDate,omitempty" bson:"endDate,omitempty"`
	IssueDate                    *time.Time `json:"issueDate,omitempty" bson:"issueDate,omitempty"`
	OfferLetterSentStatus        string     `json:"offerLetterSentStatus,omitempty" bson:"offerLetterSentStatus,omitempty"`
	InternshipCompleted          string     `json:"internshipCompleted,omitempty" bson:"internshipCompleted,omitempty"`
	CertificateSentStatus        string     `json:"certificateSentStatus,omitempty" bson:"certificateSentStatus,omitempty"`
	CreatedAt                    time.Time  `json:"createdAt" bson:"createdAt"`
}

// PublicRecordView is the subset of a record exposed for certificate verification
type PublicRecordView struct {
	Name      string     `json:"name"`
	Domain    string     `json:"domain"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	IssueDate *time.Time `json:"issueDate"`
	InternID  string     `json:"internId"`
	College   string     `json:"college"`
}

// PublicView projects the record onto the fields safe to show publicly
func (r *InternshipRecord) PublicView() PublicRecordView {
	return PublicRecordView{
		Name:      r.FullName,
		Domain:    r.InternshipTrack,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		IssueDate: r.IssueDate,
		InternID:  r.InternID,
		College:   r.CollegeName,
	}
}

// ContactMessage is a submission of the public contact form
type ContactMessage struct {
	ID        string    `json:"id,omitempty" bson:"-"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Subject   string    `json:"subject" bson:"subject"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// BulkResult is what a storage backend reports for one bulk upsert
type BulkResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	Failures      []ElementError
}

// BatchResult summarizes a reconcile call
type BatchResult struct {
	MatchedCount  int64          `json:"matchedCount"`
	ModifiedCount int64          `json:"modifiedCount"`
	UpsertedCount int64          `json:"upsertedCount"`
	Errors        []ElementError `json:"errors,omitempty"`
}

// ElementError describes a batch element that was not applied.
// Index is the element's position in the submitted batch.
type ElementError struct {
	Index    int    `json:"index"`
	InternID string `json:"internId,omitempty"`
	Message  string `json:"message"`
}
