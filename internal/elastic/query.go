package elastic

import "strings"

// Query is a search body submitted to the engine.
type Query struct {
	From      int              `json:"from"`
	Size      int              `json:"size"`
	Query     queryClause      `json:"query"`
	Highlight *highlightClause `json:"highlight,omitempty"`
}

type queryClause struct {
	MultiMatch *multiMatchClause `json:"multi_match,omitempty"`
	Bool       *boolClause       `json:"bool,omitempty"`
}

type multiMatchClause struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
}

type boolClause struct {
	Should             []matchClause `json:"should"`
	MinimumShouldMatch int           `json:"minimum_should_match"`
}

type matchClause struct {
	Match map[string]string `json:"match"`
}

type highlightClause struct {
	NumberOfFragments int                 `json:"number_of_fragments"`
	FragmentSize      int                 `json:"fragment_size"`
	Fields            map[string]struct{} `json:"fields"`
}

// HighlightQuery matches the space-joined keywords against both content and
// title, requesting highlighted excerpts of content. An empty keyword list
// yields a valid query that matches nothing.
func HighlightQuery(keywords []string, maxDocs, fragmentCount, fragmentLength int) Query {
	return Query{
		From: 0,
		Size: maxDocs,
		Query: queryClause{
			MultiMatch: &multiMatchClause{
				Query:  strings.Join(keywords, " "),
				Fields: []string{"content", "title"},
			},
		},
		Highlight: &highlightClause{
			NumberOfFragments: fragmentCount,
			FragmentSize:      fragmentLength,
			Fields:            map[string]struct{}{"content": {}},
		},
	}
}

// TagQuery builds a disjunctive match across one clause per tag. An empty tag
// list yields a valid query that matches nothing.
func TagQuery(tags []string, maxDocs int) Query {
	should := make([]matchClause, 0, len(tags))
	for _, tag := range tags {
		should = append(should, matchClause{Match: map[string]string{"tags": tag}})
	}
	return Query{
		From: 0,
		Size: maxDocs,
		Query: queryClause{
			Bool: &boolClause{
				Should:             should,
				MinimumShouldMatch: 1,
			},
		},
	}
}
