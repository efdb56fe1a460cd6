package catalog

// OptionResult is the parsed outcome of resolving one option: an internal
// value (string, []string or time.Time depending on the option kind) and a
// display label echoing what the user picked.
type OptionResult struct {
	Value any
	Label string
}

// ResultSet is an insertion-ordered optionID -> OptionResult map. Order
// matters: conditions only ever reference earlier options, and product
// summaries echo options in declaration order.
type ResultSet struct {
	ids []string
	m   map[string]OptionResult
}

func NewResultSet() *ResultSet {
	return &ResultSet{m: make(map[string]OptionResult)}
}

func (s *ResultSet) Put(id string, result OptionResult) {
	if s.m == nil {
		s.m = make(map[string]OptionResult)
	}
	if _, exists := s.m[id]; !exists {
		s.ids = append(s.ids, id)
	}
	s.m[id] = result
}

func (s *ResultSet) Get(id string) (OptionResult, bool) {
	if s == nil || s.m == nil {
		return OptionResult{}, false
	}
	result, ok := s.m[id]
	return result, ok
}

func (s *ResultSet) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *ResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Values returns the id -> value map used for template rendering.
func (s *ResultSet) Values() map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for _, id := range s.ids {
		out[id] = s.m[id].Value
	}
	return out
}
