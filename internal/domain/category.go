package domain

import "strings"

// Category is one arXiv subject area rendered to its own page.
type Category struct {
	Key    string
	Code   string
	Label  string
	Topic  string
	Page   string
	Accent string
}

// DisplayTopic is the lower-case subject used in prompts.
func (c Category) DisplayTopic() string {
	if c.Topic != "" {
		return c.Topic
	}
	return strings.ToLower(c.Label)
}
