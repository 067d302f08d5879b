package talentpool

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/talent-sourcer/internal/provider"
)

const profilePath = "/profiles"

// profilePayload is the provider's deep-profile document.
type profilePayload struct {
	ID        string `json:"id"`
	Summary   string `json:"summary"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Education string `json:"education"`
	Skills    []struct {
		Name string `json:"name"`
	} `json:"skills"`
}

// Enrich implements provider.Enricher: it fetches the deep profile for one
// candidate. profileRef is the provider's profile id or profile URL slug.
func (c *Client) Enrich(ctx context.Context, profileRef string) (*provider.EnrichmentData, error) {
	profileRef = strings.TrimSpace(profileRef)
	if profileRef == "" {
		return nil, fmt.Errorf("profile reference is required")
	}

	apiURL := fmt.Sprintf("%s%s/%s", c.APIURL, profilePath, profileRef)

	var raw map[string]any
	if err := c.getJSON(ctx, apiURL, nil, &raw); err != nil {
		return nil, fmt.Errorf("get profile %s: %w", profileRef, err)
	}

	var payload profilePayload
	cfg := &mapstructure.DecoderConfig{
		Result:  &payload,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", profileRef, err)
	}

	skills := make([]string, 0, len(payload.Skills))
	for _, s := range payload.Skills {
		skills = append(skills, s.Name)
	}

	return &provider.EnrichmentData{
		Skills:    skills,
		Summary:   payload.Summary,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Education: payload.Education,
		Raw:       raw,
	}, nil
}
