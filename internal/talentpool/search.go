package talentpool

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/talent-sourcer/internal/criteria"
	"github.com/spigell/talent-sourcer/internal/provider"
)

const SearchPath = "/profiles/search"

// SearchParams mirrors the provider's search query parameters.
type SearchParams struct {
	Keywords string `yaml:"keywords"`
	// tpparam is a custom tag for reflect. Please see buildParams below.
	Skills        []string `tpparam:"skill"`
	Location      string   `yaml:"location"`
	Remote        bool     `yaml:"remote"`
	MinExperience float64  `tpparam:"experience_min"`
	PerPage       string   `yaml:"per_page" mapstructure:"per_page"`
	MaxResults    int      `tpparam:"max_results"`
}

// Search implements provider.Searcher against the talent-pool API.
func (c *Client) Search(ctx context.Context, crit criteria.Criteria, maxResults int) (*provider.SearchResult, error) {
	params := &SearchParams{
		Keywords:      crit.Keywords,
		Skills:        crit.RequiredSkills,
		Location:      crit.Location,
		Remote:        crit.RemoteAllowed,
		MinExperience: crit.MinExperienceYears,
		MaxResults:    maxResults,
	}

	// Set per_page max as possible. It should be faster.
	if params.PerPage == "" {
		params.PerPage = perPage
	}

	q := buildParams(params)
	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, found, err := c.GetItems(ctx, apiURLSearch, q)
	if err != nil {
		return nil, err
	}

	var candidates []*provider.RawCandidate
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &candidates,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode search items: %w", err)
	}

	if found < len(candidates) {
		found = len(candidates)
	}

	return &provider.SearchResult{
		Candidates: candidates,
		TotalFound: found,
	}, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("tpparam")
		if key == "" {
			// Failover to default tag if our tag do not exist.
			key = field.Tag.Get("yaml")
		}
		kind := field.Type.Kind()
		switch kind {
		case reflect.Slice:
			s := reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface()
			switch v := s.(type) {
			case []int:
				for _, value := range v {
					q.Add(key, strconv.Itoa(value))
				}
			case []string:
				for _, value := range v {
					q.Add(key, value)
				}
			}

		case reflect.Bool:
			if reflect.ValueOf(params).Elem().Field(field.Index[0]).Bool() {
				q.Set(key, "true")
			}

		default:
			value := fmt.Sprintf("%v", reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface())
			if value != "" && value != "0" {
				q.Set(key, value)
			}
		}
	}

	return q
}
