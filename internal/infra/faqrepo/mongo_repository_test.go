package faqrepo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

func TestBuildFilter(t *testing.T) {
	require.Equal(t, bson.D{}, buildFilter(faq.QuestionFilter{}))

	active := faq.StatusActive
	got := buildFilter(faq.QuestionFilter{ExcludeDeleted: true, Status: &active, AskingUserID: "u1"})
	require.Equal(t, bson.D{
		{Key: "isDeleted", Value: false},
		{Key: "status", Value: 1},
		{Key: "userId", Value: "u1"},
	}, got)
}

func TestDocumentRoundTrip(t *testing.T) {
	when := time.Date(2023, 11, 8, 0, 0, 0, 0, time.UTC)
	q := faq.Question{
		ID:                "q1",
		QuestionText:      "Is fever normal after vaccine?",
		AskingUserID:      "u1",
		EligibleDoctorIDs: []string{"d1", "d2"},
		Answers:           []faq.Answer{{DoctorID: "d1", Answer: "Yes"}},
		Status:            faq.StatusActive,
		ModifiedOn:        &when,
		ModifiedBy:        "staff",
		CreatedOn:         when,
	}

	raw, err := bson.Marshal(toDocument(q))
	require.NoError(t, err)
	var doc questionDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	require.Equal(t, q, fromDocument(doc))
}
