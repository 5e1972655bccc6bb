package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/xaenox/cvformat-bot/internal/models"
)

var errNoCandidateData = errors.New("response contains no candidate data")

// ParseCandidate decodes the structuring response. Models sometimes wrap the
// JSON in code fences, add prose around it or cut it short, so each of those
// is tolerated in turn.
func ParseCandidate(raw string) (*models.CandidateRecord, error) {
	text := stripFences(raw)

	var rec models.CandidateRecord
	err := json.Unmarshal([]byte(text), &rec)
	if err != nil {
		if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && end > start {
			err = json.Unmarshal([]byte(text[start:end+1]), &rec)
		}
	}
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(objectTail(text))
		if repairErr != nil {
			return nil, fmt.Errorf("could not parse CV data as JSON: %w", err)
		}
		rec = models.CandidateRecord{}
		if err := json.Unmarshal([]byte(repaired), &rec); err != nil {
			return nil, fmt.Errorf("could not parse repaired CV data: %w", err)
		}
	}

	if isEmptyRecord(&rec) {
		return nil, errNoCandidateData
	}
	rec.Name = strings.TrimSpace(rec.Name)
	return &rec, nil
}

func stripFences(s string) string {
	text := strings.TrimSpace(s)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[3:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// objectTail drops anything before the first opening brace.
func objectTail(s string) string {
	if i := strings.Index(s, "{"); i > 0 {
		return s[i:]
	}
	return s
}

func isEmptyRecord(rec *models.CandidateRecord) bool {
	return strings.TrimSpace(rec.Name) == "" &&
		strings.TrimSpace(rec.Profile) == "" &&
		len(rec.Education) == 0 &&
		len(rec.WorkExperience) == 0
}
