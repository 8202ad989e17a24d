package service

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
)

// Catalog is the coaching content file.
type Catalog struct {
	Coaches    []model.Coach    `yaml:"coaches"`
	Facilities []model.Facility `yaml:"facilities"`
}

// CoachingService serves the read-only coaching catalogue.
type CoachingService struct {
	catalog Catalog
}

// LoadCoachingService reads the catalogue at path.
func LoadCoachingService(path string) (*CoachingService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coaching catalog: %w", err)
	}
	return ParseCoachingCatalog(data)
}

// ParseCoachingCatalog builds the service from YAML. Unknown keys are
// rejected.
func ParseCoachingCatalog(data []byte) (*CoachingService, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("parse coaching catalog: %w", err)
	}
	return &CoachingService{catalog: catalog}, nil
}

// Coaches returns the coaches whose sport contains sport, ignoring case.
// An empty filter or "All" returns every coach.
func (s *CoachingService) Coaches(sport string) []model.Coach {
	sport = strings.ToLower(strings.TrimSpace(sport))
	if sport == "" || sport == strings.ToLower(string(model.SportAll)) {
		return append([]model.Coach(nil), s.catalog.Coaches...)
	}
	out := make([]model.Coach, 0, len(s.catalog.Coaches))
	for _, c := range s.catalog.Coaches {
		if strings.Contains(strings.ToLower(c.Sport), sport) {
			out = append(out, c)
		}
	}
	return out
}

// Facilities returns every facility section.
func (s *CoachingService) Facilities() []model.Facility {
	return append([]model.Facility(nil), s.catalog.Facilities...)
}
