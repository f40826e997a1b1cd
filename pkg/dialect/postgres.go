package dialect

func init() {
	Register(&Dialect{
		Name:    "postgres",
		Aliases: []string{"postgresql", "pg"},

		IdentQuotes:   []QuotePair{{'"', '"'}},
		DollarQuoting: true,

		RowLimit:         RowLimitLimit,
		Placeholder:      PlaceholderDollar,
		ConcatStyle:      ConcatPipes,
		RecursiveKeyword: true,
		StringAggFunc:    "STRING_AGG",

		Features: map[Feature]bool{
			FeatureRecursiveCTE:     true,
			FeatureMergeStatement:   true,
			FeatureLateralJoin:      true,
			FeatureFullOuterJoin:    true,
			FeatureWindowFunctions:  true,
			FeatureWindowFrameRange: true,
			FeatureIntersectExcept:  true,
			FeatureBooleanLiterals:  true,
			FeatureReturningClause:  true,
			FeatureDollarQuoting:    true,
			FeatureLimitWithTies:    true,
			FeatureStringAgg:        true,
		},

		Functions: map[string]string{
			"NOW": "NOW",
		},
		Synonyms: map[string]string{
			"IFNULL": "COALESCE",
		},
	})
}
