package profile

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile holds the personal details and app preferences of the monitored person.
type Profile struct {
	Name          string    `json:"name" yaml:"name"`
	Email         string    `json:"email" yaml:"email"`
	DateOfBirth   time.Time `json:"dateOfBirth" yaml:"date_of_birth"`
	Sex           Sex       `json:"sex" yaml:"sex"`
	HeightCm      float64   `json:"height" yaml:"height_cm"`
	WeightKg      float64   `json:"weight" yaml:"weight_kg"`
	Conditions    string    `json:"conditions" yaml:"conditions"`
	Medications   string    `json:"medications" yaml:"medications"`
	Notifications bool      `json:"notifications" yaml:"notifications"`
	DataSharing   bool      `json:"dataSharing" yaml:"data_sharing"`
}

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Default is the profile shown before anything has been saved.
func Default() Profile {
	return Profile{
		Name:          "John Doe",
		Email:         "john.doe@example.com",
		DateOfBirth:   time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		Sex:           SexMale,
		HeightCm:      175,
		WeightKg:      70,
		Conditions:    "None",
		Medications:   "None",
		Notifications: true,
		DataSharing:   false,
	}
}

var ErrInvalidProfile = errors.New("invalid profile")

func (p Profile) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		problems = append(problems, "email is required")
	} else if _, err := mail.ParseAddress(p.Email); err != nil {
		problems = append(problems, fmt.Sprintf("email %q is not a valid address", p.Email))
	}
	switch p.Sex {
	case SexMale, SexFemale, SexOther, "":
	default:
		problems = append(problems, fmt.Sprintf("unknown sex %q", p.Sex))
	}
	if p.HeightCm < 0 || p.WeightKg < 0 {
		problems = append(problems, "height and weight must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, "; "))
	}
	return nil
}

// FileStore persists a single profile as YAML.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the saved profile, or Default when nothing has been saved yet.
func (s *FileStore) Load() (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Profile{}, err
	}

	p := Default()
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", s.path, err)
	}
	return p, nil
}

// Save validates and writes the profile, replacing the file atomically.
func (s *FileStore) Save(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	b, err := yaml.Marshal(&p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
