package model

import (
	"strings"
	"time"
)

// Status is the publication state shared by articles and projects.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// StatusFromFlag maps the `published` checkbox sent by the admin forms.
func StatusFromFlag(published bool) Status {
	if published {
		return StatusPublished
	}
	return StatusDraft
}

// Link is the minimal reference used for previous/next navigation.
type Link struct {
	Title string `bson:"title" json:"title"`
	Slug  string `bson:"slug" json:"slug"`
}

const dateLayout = "2006-01-02"

// ParseDate accepts a plain calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// CleanList trims entries, drops empty ones and removes duplicates while
// keeping the first occurrence order.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
