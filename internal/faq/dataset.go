package faq

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is one question/answer pair from an uploaded dataset.
type Entry struct {
	Prompt string
	Answer string
}

// datasetRow accepts both the fine-tuning layout (prompt/completion) and the export layout
// (user_input/bot_response).
type datasetRow struct {
	Prompt      string `json:"prompt"`
	Completion  string `json:"completion"`
	UserInput   string `json:"user_input"`
	BotResponse string `json:"bot_response"`
}

// ParseJSONL reads one JSON object per line. Blank lines are skipped; rows without both a
// question and an answer are rejected with their line number.
func ParseJSONL(data []byte) ([]Entry, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var entries []Entry
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var row datasetRow
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidDataset, line, err)
		}
		entry := Entry{Prompt: row.Prompt, Answer: row.Completion}
		if entry.Prompt == "" {
			entry.Prompt = row.UserInput
		}
		if entry.Answer == "" {
			entry.Answer = row.BotResponse
		}
		if strings.TrimSpace(entry.Prompt) == "" || strings.TrimSpace(entry.Answer) == "" {
			return nil, fmt.Errorf("%w: line %d: prompt and answer are required", ErrInvalidDataset, line)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("faq: read dataset: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDataset
	}
	return entries, nil
}
