package sanctionsmap

import "github.com/complyline/screening/internal/model"

// Tolerant extraction over the regime detail records. The country and
// measures fields vary in nesting between responses; missing or unexpected
// shapes render as absent values, never as errors.

// CountryTitle digs the country title out of a regime record. The field may
// be an object with a "data" object, an object with a "data" list, or a bare
// list.
func CountryTitle(regime map[string]any) *string {
	switch country := regime["country"].(type) {
	case map[string]any:
		switch inner := country["data"].(type) {
		case map[string]any:
			return stringField(inner, "title")
		case []any:
			if first, ok := head(inner); ok {
				return stringField(first, "title")
			}
		}
	case []any:
		if first, ok := head(country); ok {
			if title := stringField(first, "title"); title != nil {
				return title
			}
			if data, ok := first["data"].(map[string]any); ok {
				return stringField(data, "title")
			}
		}
	}
	return nil
}

// MeasureTitles collects the measure type titles of a regime record.
func MeasureTitles(regime map[string]any) []string {
	var list []any
	switch measures := regime["measures"].(type) {
	case map[string]any:
		list, _ = measures["data"].([]any)
	case []any:
		list = measures
	}

	var titles []string
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		mtype, ok := m["type"].(map[string]any)
		if !ok {
			continue
		}
		data, ok := mtype["data"].(map[string]any)
		if !ok {
			continue
		}
		if title := stringField(data, "title"); title != nil {
			titles = append(titles, *title)
		}
	}
	return titles
}

// RegimeMatch projects one opaque regime record into the response shape.
func RegimeMatch(regime map[string]any) model.RegistryMatch {
	match := model.RegistryMatch{
		Type:     "regime",
		ID:       regime["id"],
		Country:  CountryTitle(regime),
		Measures: MeasureTitles(regime),
	}
	if s := stringField(regime, "acronym"); s != nil {
		match.Acronym = *s
	}
	if s := stringField(regime, "specification"); s != nil {
		match.Specification = *s
	}
	return match
}

func stringField(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

func head(list []any) (map[string]any, bool) {
	if len(list) == 0 {
		return nil, false
	}
	m, ok := list[0].(map[string]any)
	return m, ok
}
