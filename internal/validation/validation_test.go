package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strengths-service/internal/domain"
)

func TestSchemasCompile(t *testing.T) {
	_, err := New()
	require.NoError(t, err)
}

func TestSubmitValidation(t *testing.T) {
	v := MustNew()

	cases := []struct {
		name   string
		body   string
		wantOK bool
		where  string
	}{
		{"valid", `{"responses":[{"questionId":"q1","domain":"creativity","value":3}]}`, true, ""},
		{"empty responses", `{"responses":[]}`, false, "responses"},
		{"missing responses", `{}`, false, "responses"},
		{"value too high", `{"responses":[{"questionId":"q1","domain":"d","value":6}]}`, false, "value"},
		{"value zero", `{"responses":[{"questionId":"q1","domain":"d","value":0}]}`, false, "value"},
		{"value fractional", `{"responses":[{"questionId":"q1","domain":"d","value":2.5}]}`, false, "value"},
		{"empty question id", `{"responses":[{"questionId":"","domain":"d","value":2}]}`, false, "questionId"},
		{"missing domain", `{"responses":[{"questionId":"q1","value":2}]}`, false, "domain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(Submit, []byte(tc.body))
			if tc.wantOK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Message, tc.where)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	v := MustNew()

	assert.NoError(t, v.Validate(Register, []byte(`{"username":"ada","email":"ada@example.com","password":"secret1"}`)))
	assert.NoError(t, v.Validate(Register, []byte(`{"username":"ada","email":"ada@example.com","password":"secret1","tempId":"t-1"}`)))

	assert.ErrorIs(t, v.Validate(Register, []byte(`{"username":"ab","email":"ada@example.com","password":"secret1"}`)), domain.ErrValidation)
	assert.ErrorIs(t, v.Validate(Register, []byte(`{"username":"ada","email":"not-an-email","password":"secret1"}`)), domain.ErrValidation)
	assert.ErrorIs(t, v.Validate(Register, []byte(`{"username":"ada","email":"ada@example.com","password":"123"}`)), domain.ErrValidation)
	assert.ErrorIs(t, v.Validate(Register, []byte(`{"username":"ada","email":"ada@example.com","password":"secret1","tempId":""}`)), domain.ErrValidation)
}

func TestLoginValidation(t *testing.T) {
	v := MustNew()
	assert.NoError(t, v.Validate(Login, []byte(`{"email":"ada@example.com","password":"secret1"}`)))
	assert.ErrorIs(t, v.Validate(Login, []byte(`{"email":"ada@example.com"}`)), domain.ErrValidation)
}

func TestDecodeSaveResults(t *testing.T) {
	v := MustNew()
	var body struct {
		Responses    []domain.Answer `json:"responses"`
		DomainScores map[string]int  `json:"domainScores"`
		Date         time.Time       `json:"date"`
	}
	raw := []byte(`{"responses":[{"questionId":"q1","domain":"creativity","value":4}],"domainScores":{"creativity":4},"date":"2024-05-01T10:00:00Z"}`)
	require.NoError(t, v.Decode(SaveResults, raw, &body))
	assert.Len(t, body.Responses, 1)
	assert.Equal(t, 2024, body.Date.Year())

	err := v.Decode(SaveResults, []byte(`{"responses":[{"questionId":"q1","domain":"c","value":4}],"domainScores":{}}`), &body)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMalformedJSON(t *testing.T) {
	v := MustNew()
	err := v.Validate(Submit, []byte(`{"responses":`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
