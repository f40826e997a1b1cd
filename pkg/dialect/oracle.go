package dialect

func init() {
	Register(&Dialect{
		Name:    "oracle",
		Aliases: []string{"plsql"},

		IdentQuotes: []QuotePair{{'"', '"'}},

		RowLimit:    RowLimitFetch,
		Placeholder: PlaceholderColon,
		ConcatStyle: ConcatPipes,
		// Oracle spells recursive CTEs as plain WITH; the RECURSIVE
		// keyword is rejected.
		RecursiveKeyword: false,
		StringAggFunc:    "LISTAGG",

		Features: map[Feature]bool{
			FeatureRecursiveCTE:     true,
			FeatureMergeStatement:   true,
			FeatureLateralJoin:      true,
			FeatureFullOuterJoin:    true,
			FeatureWindowFunctions:  true,
			FeatureWindowFrameRange: true,
			FeatureIntersectExcept:  true,
			FeatureLimitPercent:     true,
			FeatureLimitWithTies:    true,
			FeatureStringAgg:        true,
		},

		Functions: map[string]string{
			"SUBSTRING": "SUBSTR",
		},
		Synonyms: map[string]string{
			"NVL": "COALESCE",
		},
		NiladicFunctions: map[string]string{
			"NOW": "CURRENT_TIMESTAMP",
		},
	})
}
