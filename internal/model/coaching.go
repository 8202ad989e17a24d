package model

// Coach is an entry of the coaching catalogue.
type Coach struct {
	Name       string `json:"name" yaml:"name"`
	Sport      string `json:"sport" yaml:"sport"`
	Experience string `json:"experience" yaml:"experience"`
	Image      string `json:"image" yaml:"image"`
}

// Facility is a training facility section.
type Facility struct {
	Title    string   `json:"title" yaml:"title"`
	Image    string   `json:"image" yaml:"image"`
	Features []string `json:"features" yaml:"features"`
}
