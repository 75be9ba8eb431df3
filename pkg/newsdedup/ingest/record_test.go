package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
)

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"numeric", "1001", false},
		{"padded", " 7 ", false},
		{"leading zeros", "007", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"alpha", "abc", true},
		{"float", "1.5", true},
		{"overflow", "99999999999999999999", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Record{ArticleID: tt.id}.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
		})
	}
}

func TestRecordText(t *testing.T) {
	r := Record{Title: "Title", ContentSnippet: "Body"}
	assert.Equal(t, "Title Body", r.Text())
}

func TestValidateBatchReportsRow(t *testing.T) {
	err := ValidateBatch([]Record{
		{ArticleID: "1"},
		{ArticleID: "2"},
		{ArticleID: "x"},
	})

	var ie *internalerr.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 3, ie.Line)
	assert.Equal(t, "article_id", ie.Field)
}

func TestValidateBatchRejectsNumericDuplicates(t *testing.T) {
	err := ValidateBatch([]Record{
		{ArticleID: "7"},
		{ArticleID: "8"},
		{ArticleID: "007"},
	})

	var ie *internalerr.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 3, ie.Line)
	assert.Contains(t, ie.Msg, "row 1")
}

func TestPipelineProcess(t *testing.T) {
	p := NewPipeline(NewNormalizer(nil))

	docs, err := p.Process([]Record{
		{ArticleID: "1", Title: "Breaking news", ContentSnippet: "today"},
		{ArticleID: "2"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "breaking news today", docs[0].Text)
	assert.Equal(t, []string{"breaking", "news", "today"}, docs[0].Tokens)
	assert.True(t, docs[1].Empty())
}

func TestPipelineRejectsInvalidBatch(t *testing.T) {
	p := NewPipeline(NewNormalizer(nil))

	docs, err := p.Process([]Record{{ArticleID: ""}})
	assert.Nil(t, docs)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}
