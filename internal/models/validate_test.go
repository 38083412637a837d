package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
)

func TestValidateRocketID(t *testing.T) {
	for _, id := range []string{"12345678", "Rabc", "R123", "R123456789", "r12345678", "R1234567a", ""} {
		t.Run("reject "+id, func(t *testing.T) {
			assert.ErrorIs(t, ValidateRocketID(id), apperr.ErrInvalidFormat)
		})
	}

	assert.NoError(t, ValidateRocketID("R00000001"))
	assert.NoError(t, ValidateRocketID("R12345678"))
}

func TestParseScore(t *testing.T) {
	testCases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "95", want: 95},
		{raw: " 80 ", want: 80},
		{raw: "-5", want: -5},
		{raw: "250", want: 250},
		{raw: "abc", wantErr: true},
		{raw: "9.5", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseScore(tc.raw)
			if tc.wantErr {
				assert.ErrorIs(t, err, apperr.ErrInvalidNumber)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseMaxScore(t *testing.T) {
	got, err := ParseMaxScore("100")
	require.NoError(t, err)
	assert.Equal(t, 100, got)

	for _, raw := range []string{"0", "-10", "ten", ""} {
		_, err := ParseMaxScore(raw)
		assert.ErrorIs(t, err, apperr.ErrInvalidNumber, raw)
	}
}

func TestParseAssignmentType(t *testing.T) {
	got, err := ParseAssignmentType("Homework")
	require.NoError(t, err)
	assert.Equal(t, AssignmentHomework, got)

	got, err = ParseAssignmentType("Test")
	require.NoError(t, err)
	assert.Equal(t, AssignmentTest, got)

	for _, raw := range []string{"homework", "TEST", "Quiz", ""} {
		_, err := ParseAssignmentType(raw)
		assert.ErrorIs(t, err, apperr.ErrInvalidType, raw)
	}
}

func TestParseAssignmentID(t *testing.T) {
	id, err := ParseAssignmentID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"0", "-1", "x"} {
		_, err := ParseAssignmentID(raw)
		assert.ErrorIs(t, err, apperr.ErrInvalidNumber, raw)
	}
}

func TestStructValidation(t *testing.T) {
	t.Run("student", func(t *testing.T) {
		assert.NoError(t, (&Student{RocketID: "R12345678", Name: "Ada"}).Validate())
		assert.ErrorIs(t, (&Student{RocketID: "R123", Name: "Ada"}).Validate(), apperr.ErrInvalidFormat)
		assert.ErrorIs(t, (&Student{RocketID: "R12345678"}).Validate(), apperr.ErrInvalidFormat)
	})

	t.Run("class", func(t *testing.T) {
		assert.NoError(t, (&Class{ClassID: "CS101", ClassName: "Intro"}).Validate())
		assert.ErrorIs(t, (&Class{ClassID: "CS101"}).Validate(), apperr.ErrInvalidFormat)
	})

	t.Run("assignment", func(t *testing.T) {
		valid := Assignment{Title: "HW1", DueDate: "2024-09-01", MaxScore: 100, Type: AssignmentHomework, ClassID: "CS101"}
		assert.NoError(t, valid.Validate())

		badType := valid
		badType.Type = "Quiz"
		assert.ErrorIs(t, badType.Validate(), apperr.ErrInvalidType)

		badMax := valid
		badMax.MaxScore = 0
		assert.ErrorIs(t, badMax.Validate(), apperr.ErrInvalidNumber)

		noTitle := valid
		noTitle.Title = ""
		assert.ErrorIs(t, noTitle.Validate(), apperr.ErrInvalidFormat)
	})

	t.Run("grade", func(t *testing.T) {
		assert.NoError(t, (&Grade{RocketID: "R12345678", AssignmentID: 1, Score: -3, ClassID: "CS101"}).Validate())
		assert.ErrorIs(t, (&Grade{RocketID: "X", AssignmentID: 1, ClassID: "CS101"}).Validate(), apperr.ErrInvalidFormat)
	})
}
