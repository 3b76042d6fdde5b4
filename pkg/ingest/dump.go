package ingest

import (
	"encoding/json"
	"fmt"
	"os"
)

// ProfessorDump is the JSON shape one scraper run writes per professor.
type ProfessorDump struct {
	Name             string       `json:"name"`
	SourceURL        string       `json:"source_url,omitempty"`
	OverallQuality   *float64     `json:"overall_quality"`
	Difficulty       *float64     `json:"difficulty"`
	RecommendPercent *float64     `json:"recommend_percent"`
	Tags             []TagCount   `json:"tags,omitempty"`
	Reviews          []ReviewDump `json:"reviews"`
}

// TagCount is one profile tag with how many reviewers picked it.
type TagCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ReviewDump is one scraped review inside a professor dump.
type ReviewDump struct {
	Date          string   `json:"date"` // ISO YYYY-MM-DD
	Course        string   `json:"course"`
	Overall       *float64 `json:"overall"`
	Ease          *float64 `json:"ease"`
	Attendance    string   `json:"attendance"`
	GradeReceived string   `json:"grade_received"`
	Interest      string   `json:"interest"`
	Tags          []string `json:"tags,omitempty"`
	Comment       string   `json:"comment"`
}

// ReadDump loads and decodes one professor dump file.
func ReadDump(path string) (*ProfessorDump, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump %s: %w", path, err)
	}
	var d ProfessorDump
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode dump %s: %w", path, err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("dump %s: missing professor name", path)
	}
	return &d, nil
}
