package question

// Category classifies what a question measures.
type Category string

const (
	CategoryDemographic  Category = "DEMOGRAFICA"
	CategoryBehavioral   Category = "COMPORTAMENTAL"
	CategoryAttitudinal  Category = "ATITUDINAL"
	CategoryKnowledge    Category = "CONHECIMENTO"
	CategorySatisfaction Category = "SATISFACAO"
	CategoryQualitative  Category = "QUALITATIVA"
)

var allCategories = []Category{
	CategoryDemographic,
	CategoryBehavioral,
	CategoryAttitudinal,
	CategoryKnowledge,
	CategorySatisfaction,
	CategoryQualitative,
}

// Categories returns every category in canonical order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// Scope is the territorial or thematic reach of a question.
type Scope string

const (
	ScopeLocal         Scope = "LOCAL"
	ScopeInstitutional Scope = "INSTITUCIONAL"
	ScopeRegional      Scope = "REGIONAL"
	ScopeNational      Scope = "NACIONAL"
	ScopeInternational Scope = "INTERNACIONAL"
	ScopeThematic      Scope = "TEMATICO"
	ScopeOther         Scope = "OUTRO"
)

var allScopes = []Scope{
	ScopeLocal,
	ScopeInstitutional,
	ScopeRegional,
	ScopeNational,
	ScopeInternational,
	ScopeThematic,
	ScopeOther,
}

// Scopes returns every scope in canonical order.
func Scopes() []Scope {
	return append([]Scope(nil), allScopes...)
}

// ParseCategory resolves a raw column value to a Category.
func ParseCategory(raw string) (Category, error) {
	return parseEnum("category", raw, allCategories)
}

// ParseScope resolves a raw column value to a Scope.
func ParseScope(raw string) (Scope, error) {
	return parseEnum("scope", raw, allScopes)
}

func parseEnum[T ~string](field, raw string, set []T) (T, error) {
	key := T(normalizeEnum(raw))
	for _, v := range set {
		if v == key {
			return v, nil
		}
	}
	names := make([]string, len(set))
	for i, v := range set {
		names[i] = string(v)
	}
	var zero T
	return zero, invalidEnum(field, raw, names)
}
