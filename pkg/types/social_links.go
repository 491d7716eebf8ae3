package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
)

// SocialLinks holds a client's public profiles, stored as a JSON object.
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	Website   string `json:"website,omitempty"`
}

var socialPatterns = []struct {
	field   string
	pattern *regexp.Regexp
	get     func(SocialLinks) string
}{
	{"instagram", regexp.MustCompile(`^https://(www\.)?instagram\.com/.+`), func(s SocialLinks) string { return s.Instagram }},
	{"twitter", regexp.MustCompile(`^https://(www\.)?twitter\.com/.+`), func(s SocialLinks) string { return s.Twitter }},
	{"facebook", regexp.MustCompile(`^https://(www\.)?facebook\.com/.+`), func(s SocialLinks) string { return s.Facebook }},
	{"tiktok", regexp.MustCompile(`^https://(www\.)?tiktok\.com/.+`), func(s SocialLinks) string { return s.TikTok }},
	{"website", regexp.MustCompile(`^https?://.+`), func(s SocialLinks) string { return s.Website }},
}

// Invalid returns the networks whose link does not point at that network.
// Empty links are allowed.
func (s SocialLinks) Invalid() map[string]string {
	out := map[string]string{}
	for _, p := range socialPatterns {
		v := p.get(s)
		if v != "" && !p.pattern.MatchString(v) {
			out[p.field] = "is not a valid " + p.field + " link"
		}
	}
	return out
}

func (s SocialLinks) Value() (driver.Value, error) {
	buf, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (s *SocialLinks) Scan(value interface{}) error {
	if value == nil {
		*s = SocialLinks{}
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("social links: %w", err)
	}
	var out SocialLinks
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*s = out
	return nil
}
