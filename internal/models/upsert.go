package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Stored field names. They double as JSON/BSON keys and DynamoDB attribute names.
const (
	FieldInternID                     = "internId"
	FieldEmail                        = "email"
	FieldFullName                     = "fullName"
	FieldGender                       = "gender"
	FieldMobileNumber                 = "mobileNumber"
	FieldInternshipTrack              = "internshipTrack"
	FieldHighestAcademicQualification = "highestAcademicQualification"
	FieldCollegeName                  = "collegeName"
	FieldPassingYear                  = "passingYear"
	FieldCountry                      = "country"
	FieldJoinedLinkedIn               = "joinedLinkedIn"
	FieldQuestions                    = "questions"
	FieldStartDate                    = "startDate"
	FieldEndDate                      = "endDate"
	FieldIssueDate                    = "issueDate"
	FieldOfferLetterSentStatus        = "offerLetterSentStatus"
	FieldInternshipCompleted          = "internshipCompleted"
	FieldCertificateSentStatus        = "certificateSentStatus"
	FieldCreatedAt                    = "createdAt"
)

// RawRecord is one element of a bulk-upsert request as the client sent it.
// A nil pointer means the field was absent.
type RawRecord struct {
	InternID                     *string `json:"internId"`
	Email                        *string `json:"email"`
	FullName                     *string `json:"fullName"`
	Gender                       *string `json:"gender"`
	MobileNumber                 *string `json:"mobileNumber"`
	InternshipTrack              *string `json:"internshipTrack"`
	HighestAcademicQualification *string `json:"highestAcademicQualification"`
	CollegeName                  *string `json:"collegeName"`
	PassingYear                  *Year   `json:"passingYear"`
	Country                      *string `json:"country"`
	JoinedLinkedIn               *string `json:"joinedLinkedIn"`
	Questions                    *string `json:"questions"`
	StartDate                    *string `json:"startDate"`
	EndDate                      *string `json:"endDate"`
	IssueDate                    *string `json:"issueDate"`
	OfferLetterSentStatus        *string `json:"offerLetterSentStatus"`
	InternshipCompleted          *string `json:"internshipCompleted"`
	CertificateSentStatus        *string `json:"certificateSentStatus"`
}

// DecodeRawRecord strictly decodes one batch element. Unknown keys are an error.
func DecodeRawRecord(data []byte) (*RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var rec RawRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Year accepts either a JSON number or a numeric string, since spreadsheet
// exports commonly quote it. An empty string is an empty cell: Empty is set
// and the field is left out of the update.
type Year struct {
	Value int
	Empty bool
}

func (y *Year) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(string(data)), `"`))
	if s == "" {
		*y = Year{Empty: true}
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*y = Year{Value: n}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("passingYear must be a whole number: %q", s)
	}
	*y = Year{Value: int(f)}
	return nil
}

// FieldValue is one field assignment of an upsert. Value is a string, int or time.Time.
type FieldValue struct {
	Field string
	Value interface{}
}

// InternUpsert is a normalized batch element ready for storage
type InternUpsert struct {
	Index    int
	InternID string
	Set      []FieldValue
}

// Apply assigns the given fields to the record and reports whether any stored value changed.
func (r *InternshipRecord) Apply(fields []FieldValue) bool {
	changed := false
	for _, f := range fields {
		if r.apply(f) {
			changed = true
		}
	}
	return changed
}

func (r *InternshipRecord) apply(f FieldValue) bool {
	switch v := f.Value.(type) {
	case string:
		target := r.stringField(f.Field)
		if target == nil || *target == v {
			return false
		}
		*target = v
		return true
	case int:
		if f.Field != FieldPassingYear {
			return false
		}
		if r.PassingYear != nil && *r.PassingYear == v {
			return false
		}
		r.PassingYear = &v
		return true
	case time.Time:
		target := r.dateField(f.Field)
		if target == nil {
			return false
		}
		if *target != nil && (*target).Equal(v) {
			return false
		}
		*target = &v
		return true
	}
	return false
}

func (r *InternshipRecord) stringField(name string) *string {
	switch name {
	case FieldEmail:
		return &r.Email
	case FieldFullName:
		return &r.FullName
	case FieldGender:
		return &r.Gender
	case FieldMobileNumber:
		return &r.MobileNumber
	case FieldInternshipTrack:
		return &r.InternshipTrack
	case FieldHighestAcademicQualification:
		return &r.HighestAcademicQualification
	case FieldCollegeName:
		return &r.CollegeName
	case FieldCountry:
		return &r.Country
	case FieldJoinedLinkedIn:
		return &r.JoinedLinkedIn
	case FieldQuestions:
		return &r.Questions
	case FieldOfferLetterSentStatus:
		return &r.OfferLetterSentStatus
	case FieldInternshipCompleted:
		return &r.InternshipCompleted
	case FieldCertificateSentStatus:
		return &r.CertificateSentStatus
	}
	return nil
}

func (r *InternshipRecord) dateField(name string) **time.Time {
	switch name {
	case FieldStartDate:
		return &r.StartDate
	case FieldEndDate:
		return &r.EndDate
	case FieldIssueDate:
		return &r.IssueDate
	}
	return nil
}
