package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ArowuTest/easyearning-backend/internal/models"
)

// TaskImportResult summarises a CSV task import
type TaskImportResult struct {
	TotalRows int                `json:"totalRows"`
	Tasks     []models.TaskInput `json:"-"`
	Errors    []string           `json:"errors"`
}

// ParseTaskCSV reads title,reward,type,cooldownMinutes rows. Column order is
// taken from the header; rows that fail to parse are reported and skipped.
func ParseTaskCSV(r io.Reader) (*TaskImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	titleIdx := findColumnIndex(header, []string{"title", "name", "task"})
	rewardIdx := findColumnIndex(header, []string{"reward", "points"})
	typeIdx := findColumnIndex(header, []string{"type", "kind"})
	cooldownIdx := findColumnIndex(header, []string{"cooldownMinutes", "cooldown"})
	if titleIdx == -1 || typeIdx == -1 {
		return nil, errors.New("title and type columns are required")
	}

	result := &TaskImportResult{Errors: []string{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}

		in := models.TaskInput{
			Title: strings.TrimSpace(cell(row, titleIdx)),
			Type:  models.TaskType(strings.ToUpper(strings.TrimSpace(cell(row, typeIdx)))),
		}
		if in.Reward, err = intCell(row, rewardIdx); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid reward: %v", result.TotalRows, err))
			continue
		}
		if in.CooldownMinutes, err = intCell(row, cooldownIdx); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid cooldown: %v", result.TotalRows, err))
			continue
		}
		result.Tasks = append(result.Tasks, in)
	}
	return result, nil
}

func findColumnIndex(header []string, names []string) int {
	for i, h := range header {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(h), n) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func intCell(row []string, idx int) (int, error) {
	v := strings.TrimSpace(cell(row, idx))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
