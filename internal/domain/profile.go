package domain

import (
	"sort"
	"time"
)

// Profile is the structured object the model emits at finish-time. Its schema
// (three top-level keys) is a prompt contract, not a Go type: we only ever
// look keys up and tolerate their absence.
type Profile map[string]any

const (
	ProfileKeyRecipient = "recipient_information"
	ProfileKeyCare      = "care_requirements"
	ProfileKeySchedule  = "schedule_preferences"

	ProfileVersion = "1.0"
)

// AttachMetadata stamps the profile with creation metadata before it is
// handed to the persister.
func (p Profile) AttachMetadata(createdAt time.Time, language string) {
	p["metadata"] = map[string]any{
		"created_at": createdAt.UTC().Format(time.RFC3339),
		"language":   language,
		"version":    ProfileVersion,
	}
}

// SectionItem is one flattened label/value pair of a profile section.
type SectionItem struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// ProfileSection is a user-facing named group of profile facts.
type ProfileSection struct {
	Title string        `json:"title"`
	Items []SectionItem `json:"items"`
}

// Section flattens the object stored under key into a titled section.
// A missing or non-object value yields an empty section, never an error;
// labels are sorted so the result is deterministic.
func (p Profile) Section(key, title string) ProfileSection {
	section := ProfileSection{Title: title, Items: []SectionItem{}}

	obj, ok := p[key].(map[string]any)
	if !ok {
		return section
	}

	labels := make([]string, 0, len(obj))
	for label := range obj {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		section.Items = append(section.Items, SectionItem{Label: label, Value: obj[label]})
	}
	return section
}

// Sections derives the three fixed user-facing sections from the profile.
func (p Profile) Sections() []ProfileSection {
	return []ProfileSection{
		p.Section(ProfileKeyRecipient, "Basic Information"),
		p.Section(ProfileKeyCare, "Care Requirements"),
		p.Section(ProfileKeySchedule, "Schedule Preferences"),
	}
}

// InterviewRecord is the durable audit record written when an interview
// finishes. It keeps the full raw transcript so a human reviewer can recover
// the data even when the structured profile is wrong or missing.
type InterviewRecord struct {
	UserID           UserID
	RawHistory       []Turn
	Language         string
	ProcessedProfile Profile
	NeedsReview      bool
	ReviewCompleted  bool
	CreatedAt        Timestamp
	UpdatedAt        Timestamp
}
