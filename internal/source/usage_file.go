package source

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

type usageFileRecord struct {
	Developer      string `json:"developer"`
	Date           string `json:"date"`
	Suggestions    int    `json:"suggestions_count"`
	Acceptances    int    `json:"acceptances_count"`
	LinesSuggested int    `json:"lines_suggested"`
	LinesAccepted  int    `json:"lines_accepted"`
	ChatTurns      int    `json:"chat_turns"`
}

// LoadUsageFile reads a JSON array of per-developer usage records with YYYY-MM-DD dates.
func LoadUsageFile(path string) ([]domain.UsageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading usage file: %w", err)
	}
	var raw []usageFileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing usage file: %w", err)
	}

	records := make([]domain.UsageRecord, 0, len(raw))
	for i, r := range raw {
		if r.Developer == "" {
			return nil, fmt.Errorf("usage file record %d: missing developer", i)
		}
		date, err := time.Parse(domain.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("usage file record %d: invalid date %q: %w", i, r.Date, err)
		}
		if r.Suggestions < 0 || r.Acceptances < 0 {
			return nil, fmt.Errorf("usage file record %d: negative counts", i)
		}
		rec := domain.NewUsageRecord(r.Developer, date, r.Suggestions, r.Acceptances)
		rec.LinesSuggested = r.LinesSuggested
		rec.LinesAccepted = r.LinesAccepted
		rec.ChatTurns = r.ChatTurns
		records = append(records, rec)
	}
	return records, nil
}
