package validation

import (
	"testing"

	"quizquest/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStartTestRequest(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		req        dto.StartTestRequest
		wantFields []string
	}{
		{name: "empty request is valid", req: dto.StartTestRequest{}},
		{name: "category and count", req: dto.StartTestRequest{CategoryID: "cat-go", Count: 20}},
		{
			name:       "category with invalid characters",
			req:        dto.StartTestRequest{CategoryID: "cat go!"},
			wantFields: []string{"category_id"},
		},
		{
			name:       "negative count",
			req:        dto.StartTestRequest{Count: -1},
			wantFields: []string{"count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateStartTestRequest(&tt.req)
			require.Len(t, errs, len(tt.wantFields))
			for i, field := range tt.wantFields {
				assert.Equal(t, field, errs[i].Field)
			}
		})
	}
}

func TestValidateSubmitTestRequest(t *testing.T) {
	v := NewValidator()

	t.Run("valid answers", func(t *testing.T) {
		errs := v.ValidateSubmitTestRequest(&dto.SubmitTestRequest{
			Answers: []dto.SubmittedAnswer{
				{QuestionID: "q1", SelectedAnswer: 0},
				{QuestionID: "q2", SelectedAnswer: 3},
			},
		})
		assert.Empty(t, errs)
	})

	t.Run("blank question id", func(t *testing.T) {
		errs := v.ValidateSubmitTestRequest(&dto.SubmitTestRequest{
			Answers: []dto.SubmittedAnswer{{QuestionID: "  ", SelectedAnswer: 1}},
		})
		require.Len(t, errs, 1)
		assert.Equal(t, "question_id", errs[0].Field)
	})

	t.Run("answer index out of range", func(t *testing.T) {
		errs := v.ValidateSubmitTestRequest(&dto.SubmitTestRequest{
			Answers: []dto.SubmittedAnswer{
				{QuestionID: "q1", SelectedAnswer: 4},
				{QuestionID: "q2", SelectedAnswer: -1},
			},
		})
		require.Len(t, errs, 2)
		assert.Equal(t, "selected_answer", errs[0].Field)
		assert.Equal(t, "selected_answer", errs[1].Field)
	})
}

func TestValidateAttemptID(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateAttemptID("01ARZ3NDEKTSV4RRFFQ69G5FAV"))

	errs := v.ValidateAttemptID("")
	require.Len(t, errs, 1)
	assert.Equal(t, "attempt_id", errs[0].Field)
	assert.Contains(t, errs[0].Message, "required")

	// Valid length but contains excluded characters (I and L).
	errs = v.ValidateAttemptID("01ARZ3NDEKTSV4RRFFQ69G5FIL")
	require.Len(t, errs, 1)
	assert.Equal(t, "attempt_id", errs[0].Field)
	assert.Contains(t, errs[0].Message, "invalid format")
}
