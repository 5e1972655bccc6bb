package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "name": "Alex Morgan",
  "location": "Leeds, UK",
  "profile": "Operations lead.",
  "work_experience": [
    {"dates": "2020 - Present", "company": "Acme", "position": "Ops Lead", "bullets": ["Cut costs 12%"]}
  ],
  "skills": {"technical": ["SAP", "Excel"]}
}`

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", sampleJSON},
		{"json fence", "```json\n" + sampleJSON + "\n```"},
		{"bare fence", "```\n" + sampleJSON + "\n```"},
		{"prose around", "Here is the data you asked for:\n" + sampleJSON + "\nLet me know if you need more."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseCandidate(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "Alex Morgan", rec.Name)
			require.Len(t, rec.WorkExperience, 1)
			assert.Equal(t, "Acme", rec.WorkExperience[0].Company)
			assert.Equal(t, []string{"SAP", "Excel"}, rec.TechnicalSkills())
		})
	}
}

func TestParseCandidate_RepairsTruncatedJSON(t *testing.T) {
	raw := `{"name": "Sam Lee", "profile": "Analyst", "education": [{"title": "BSc"`

	rec, err := ParseCandidate(raw)
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", rec.Name)
}

func TestParseCandidate_Rejects(t *testing.T) {
	_, err := ParseCandidate(`{}`)
	assert.ErrorIs(t, err, errNoCandidateData)

	_, err = ParseCandidate(`{"name": ["not", "a", "string"]}`)
	assert.Error(t, err)
}
