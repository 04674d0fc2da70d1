// Package vocabulary holds the canonical field and document-type tables that
// raw headers and free text are matched against.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Canonical bank statement fields.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldDebit       = "debit"
	FieldCredit      = "credit"
	FieldBalance     = "balance"
)

// BankStatementFields lists the canonical fields in standardization order.
var BankStatementFields = []string{FieldDate, FieldDescription, FieldDebit, FieldCredit, FieldBalance}

// KnownDocumentTypes are the categories the pipeline can process.
var KnownDocumentTypes = []string{"bank_statement", "credit_bureau", "kyb_kyc"}

//go:embed default.yaml
var defaultYAML []byte

// Entry maps one canonical name to its synonyms.
type Entry struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

// Vocabulary is loaded once at startup and must not be mutated afterwards.
type Vocabulary struct {
	Fields        []Entry `yaml:"fields"`
	DocumentTypes []Entry `yaml:"document_types"`
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
	defaultErr   error
)

// Default returns the embedded vocabulary.
func Default() (*Vocabulary, error) {
	defaultOnce.Do(func() {
		defaultVocab, defaultErr = Parse(defaultYAML)
	})
	return defaultVocab, defaultErr
}

// Load reads a vocabulary file. An empty path returns the embedded default.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Parse decodes and validates vocabulary YAML.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *Vocabulary) validate() error {
	if err := validateEntries("fields", v.Fields); err != nil {
		return err
	}
	if err := validateEntries("document_types", v.DocumentTypes); err != nil {
		return err
	}

	for _, f := range BankStatementFields {
		if v.Field(f) == nil {
			return fmt.Errorf("fields: canonical field %q is missing", f)
		}
	}
	for _, dt := range v.DocumentTypes {
		if !contains(KnownDocumentTypes, dt.Name) {
			return fmt.Errorf("document_types: unknown document type %q", dt.Name)
		}
	}
	return nil
}

func validateEntries(section string, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%s: at least one entry is required", section)
	}
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return fmt.Errorf("%s[%d]: name is required", section, i)
		}
		if seen[name] {
			return fmt.Errorf("%s: duplicate entry %q", section, name)
		}
		seen[name] = true
		if len(e.Synonyms) == 0 {
			return fmt.Errorf("%s.%s: at least one synonym is required", section, name)
		}
	}
	return nil
}

// Field returns the entry for a canonical field, or nil.
func (v *Vocabulary) Field(name string) *Entry {
	return find(v.Fields, name)
}

// DocumentType returns the entry for a document type, or nil.
func (v *Vocabulary) DocumentType(name string) *Entry {
	return find(v.DocumentTypes, name)
}

func find(entries []Entry, name string) *Entry {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
