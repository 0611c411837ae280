package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hanzidrill/internal/logger"
)

// Lesson is one lesson as written in the source files
type Lesson struct {
	ID        string           `yaml:"lesson"`
	Sentences []SourceSentence `yaml:"sentences"`
}

type SourceSentence struct {
	Translation string       `yaml:"def"`
	Words       []SourceWord `yaml:"words"`
}

type SourceWord struct {
	Character string `yaml:"character"`
	Pinyin    string `yaml:"pinyin"`
}

// lessonFile keeps lessons as raw nodes so one mistyped lesson does not
// fail the rest of the file
type lessonFile struct {
	Lessons []yaml.Node `yaml:"lessons"`
}

// ReadDir parses every *.yaml, *.yml and *.json file in dir, in filename
// order. JSON is read through the YAML decoder. Files that fail to parse are
// logged and skipped.
func ReadDir(dir string, log *zap.Logger) ([]Lesson, error) {
	log = logger.OrNop(log)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read lessons dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var lessons []Lesson
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable lesson file", zap.String("file", path), zap.Error(err))
			continue
		}

		parsed, err := Parse(data, log.With(zap.String("file", path)))
		if err != nil {
			log.Warn("skipping malformed lesson file", zap.String("file", path), zap.Error(err))
			continue
		}
		lessons = append(lessons, parsed...)
	}

	return lessons, nil
}

// Parse decodes one lesson file. It fails only when the file itself is not
// a lesson list; lessons that do not decode are logged and skipped.
func Parse(data []byte, log *zap.Logger) ([]Lesson, error) {
	log = logger.OrNop(log)

	var f lessonFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	lessons := make([]Lesson, 0, len(f.Lessons))
	for i := range f.Lessons {
		var l Lesson
		if err := f.Lessons[i].Decode(&l); err != nil {
			log.Warn("skipping malformed lesson", zap.Int("index", i), zap.Error(err))
			continue
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}
