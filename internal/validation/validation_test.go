package validation

import (
	"errors"
	"testing"
)

func TestValidateWord(t *testing.T) {
	tests := []struct {
		name      string
		character string
		pinyin    string
		wantErr   bool
	}{
		{
			name:      "valid character",
			character: "你",
			pinyin:    "nǐ",
			wantErr:   false,
		},
		{
			name:      "punctuation",
			character: "。",
			pinyin:    "",
			wantErr:   false,
		},
		{
			name:      "multi glyph punctuation",
			character: "……",
			pinyin:    "",
			wantErr:   false,
		},
		{
			name:      "missing character",
			character: "",
			pinyin:    "nǐ",
			wantErr:   true,
		},
		{
			name:      "two characters with pinyin",
			character: "你好",
			pinyin:    "nǐhǎo",
			wantErr:   true,
		},
		{
			name:      "padded pinyin",
			character: "好",
			pinyin:    " hǎo",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWord(tt.character, tt.pinyin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWord(%q, %q) error = %v, wantErr %v", tt.character, tt.pinyin, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLessonID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid id", input: "HSK1-L01", wantErr: false},
		{name: "empty id", input: "", wantErr: true},
		{name: "whitespace id", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLessonID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLessonID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSentenceParts(t *testing.T) {
	if err := ValidateTranslation(""); err == nil {
		t.Error("ValidateTranslation(\"\") should fail")
	}
	if err := ValidateTranslation("I am a student."); err != nil {
		t.Errorf("ValidateTranslation() error = %v", err)
	}
	if err := ValidateWordCount(0); err == nil {
		t.Error("ValidateWordCount(0) should fail")
	}
	if err := ValidateWordCount(3); err != nil {
		t.Errorf("ValidateWordCount(3) error = %v", err)
	}
}

func TestValidationErrorField(t *testing.T) {
	err := ValidateWord("", "nǐ")

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Field != "character" {
		t.Errorf("Field = %v, want character", verr.Field)
	}
	if verr.Error() != "character: character is required" {
		t.Errorf("Error() = %q", verr.Error())
	}
}
