package faq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status partitions questions that may appear in patient listings.
type Status int

// StatusActive marks a question visible in filtered listings.
const StatusActive Status = 1

// Question is a patient submitted inquiry awaiting doctor responses.
type Question struct {
	ID           string `json:"_id"`
	QuestionText string `json:"question"`
	AskingUserID string `json:"userId"`
	// EligibleDoctorIDs is the snapshot of non-deleted doctors taken when the
	// question was created. It is never re-derived.
	EligibleDoctorIDs []string   `json:"doctorIds"`
	Answers           []Answer   `json:"answers"`
	IsDeleted         bool       `json:"isDeleted"`
	Status            Status     `json:"status"`
	ModifiedBy        string     `json:"modifiedBy,omitempty"`
	ModifiedOn        *time.Time `json:"modifiedOn,omitempty"`
	CreatedOn         time.Time  `json:"createdOn"`
}

// Answer is a single doctor reply. Answers are append-only.
type Answer struct {
	DoctorID string `json:"doctorId"`
	Answer   string `json:"answer"`
}

// Doctor is read-only from the FAQ service's perspective.
type Doctor struct {
	ID           string
	Name         string
	ProfileImage string
	IsDeleted    bool
}

// User is read-only from the FAQ service's perspective.
type User struct {
	ID   string
	Name string
}

// UserRef is the asking user projection attached to question reads.
type UserRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// DoctorRef is the eligible doctor projection attached to full listings.
type DoctorRef struct {
	ID           string `json:"_id"`
	DoctorName   string `json:"DoctorName"`
	ProfileImage string `json:"profileImage"`
}

// QuestionView is a question joined with the referenced user and doctors.
type QuestionView struct {
	Question
	AskingUser      *UserRef    `json:"user"`
	EligibleDoctors []DoctorRef `json:"doctors,omitempty"`
}

// SaveRequest creates a question.
type SaveRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
	UserID   string `json:"userId" validate:"required,max=64"`
}

// SaveResponse carries the persisted question plus the notified doctor ids.
type SaveResponse struct {
	Question
	DoctorIDs []string `json:"doctorIds"`
}

// ReplyRequest appends a doctor answer to a question.
type ReplyRequest struct {
	QuestionID string `json:"_id" validate:"required"`
	DoctorID   string `json:"doctorIds" validate:"required"`
	Answer     string `json:"answers" validate:"required,max=4000"`
	// RequesterID is the authenticated caller, never read from the body.
	RequesterID string `json:"-"`
}

// UnmarshalJSON accepts doctorIds either as a string or as an array of
// strings, which is joined with commas.
func (r *ReplyRequest) UnmarshalJSON(data []byte) error {
	type plain ReplyRequest
	aux := struct {
		*plain
		DoctorID json.RawMessage `json:"doctorIds"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	raw := bytes.TrimSpace(aux.DoctorID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		r.DoctorID = ""
	case raw[0] == '[':
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return fmt.Errorf("doctorIds: %w", err)
		}
		r.DoctorID = strings.Join(ids, ",")
	default:
		if err := json.Unmarshal(raw, &r.DoctorID); err != nil {
			return fmt.Errorf("doctorIds: %w", err)
		}
	}
	return nil
}

// ReplyResponse exposes answers to the asking user only.
type ReplyResponse struct {
	FaqID   string   `json:"faqId"`
	Answers []Answer `json:"answers"`
}

// FilterRequest lists a patient's own questions. Page is a row offset.
type FilterRequest struct {
	LoginID string `json:"loginId" validate:"required"`
	Page    int    `json:"page" validate:"gte=0"`
	Limit   int    `json:"limit" validate:"gte=0"`
}

// FilterResponse holds one page plus the unpaginated total.
type FilterResponse struct {
	List       []QuestionView `json:"faqList"`
	TotalCount int64          `json:"faqCount"`
}

// DeleteRequest soft deletes a question.
type DeleteRequest struct {
	QuestionID string     `json:"_id" validate:"required"`
	ModifiedBy string     `json:"modifiedBy"`
	ModifiedOn *time.Time `json:"modifiedOn"`
}

// Notification is the payload handed to the notification gateway.
type Notification struct {
	DoctorID   string    `json:"doctorId"`
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}
