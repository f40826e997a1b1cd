package dialect

func init() {
	Register(&Dialect{
		Name: "sqlite",

		// SQLite accepts the quoting conventions of its neighbours.
		IdentQuotes: []QuotePair{{'"', '"'}, {'[', ']'}, {'`', '`'}},

		RowLimit:         RowLimitLimit,
		Placeholder:      PlaceholderQuestion,
		ConcatStyle:      ConcatPipes,
		RecursiveKeyword: true,
		StringAggFunc:    "GROUP_CONCAT",

		Features: map[Feature]bool{
			FeatureRecursiveCTE:     true,
			FeatureFullOuterJoin:    true,
			FeatureWindowFunctions:  true,
			FeatureWindowFrameRange: true,
			FeatureIntersectExcept:  true,
			FeatureBooleanLiterals:  true,
			FeatureReturningClause:  true,
			FeatureStringAgg:        true,
		},

		Functions: map[string]string{
			"SUBSTRING": "SUBSTR",
		},
		Synonyms: map[string]string{
			"IFNULL": "COALESCE",
		},
		NiladicFunctions: map[string]string{
			"NOW": "CURRENT_TIMESTAMP",
		},
	})
}
