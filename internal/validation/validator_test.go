package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Query  string `json:"user_query" validate:"notblank,max=20"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
	Format string `json:"format" validate:"omitempty,oneof=json text"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		req    sampleRequest
		fields []string
	}{
		{name: "valid", req: sampleRequest{Query: "trend", Limit: 10, Format: "json"}},
		{name: "blank query", req: sampleRequest{Query: "   "}, fields: []string{"user_query"}},
		{name: "too long", req: sampleRequest{Query: "a query that is far too long"}, fields: []string{"user_query"}},
		{name: "several", req: sampleRequest{Limit: 500, Format: "xml"}, fields: []string{"user_query", "limit", "format"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var got []string
			for _, f := range err.(*Error).Fields {
				got = append(got, f.Field)
				assert.NotEmpty(t, f.Message)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestMessages(t *testing.T) {
	err := Struct(&sampleRequest{Limit: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_query must not be blank")
	assert.Contains(t, err.Error(), "limit must be greater than or equal to 0")
	assert.Same(t, Validator(), Validator())
}
