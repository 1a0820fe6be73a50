package exam

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is an exam definition kept on disk, used to import exams from the
// command line. Questions may be listed explicitly, pasted in the bulk text
// format, or both.
type File struct {
	ExamInput `yaml:",inline"`

	Owner     string          `yaml:"owner"`
	Questions []QuestionInput `yaml:"questions"`
	Bulk      string          `yaml:"bulk"`
}

// LoadFile reads and validates an exam definition from a YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exam file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes an exam definition and appends the bulk questions after
// the explicit ones.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse exam file: %w", err)
	}
	if f.Title == nil || *f.Title == "" {
		return nil, fmt.Errorf("exam title is required")
	}

	for i := range f.Questions {
		if f.Questions[i].Order == nil {
			order := i + 1
			f.Questions[i].Order = &order
		}
	}
	if f.Bulk != "" {
		f.Questions = append(f.Questions, ParseBulk(f.Bulk, len(f.Questions)+1)...)
		f.Bulk = ""
	}
	return &f, nil
}
