package dialect

func init() {
	Register(&Dialect{
		Name:    "sqlserver",
		Aliases: []string{"mssql", "tsql"},

		IdentQuotes: []QuotePair{{'[', ']'}, {'"', '"'}},

		RowLimit:    RowLimitTop,
		Placeholder: PlaceholderQuestion,
		ConcatStyle: ConcatPlus,
		// T-SQL spells recursive CTEs as plain WITH.
		RecursiveKeyword: false,
		StringAggFunc:    "STRING_AGG",

		Features: map[Feature]bool{
			FeatureRecursiveCTE:     true,
			FeatureMergeStatement:   true,
			FeatureFullOuterJoin:    true,
			FeatureWindowFunctions:  true,
			FeatureWindowFrameRange: true,
			FeatureIntersectExcept:  true,
			FeatureLimitPercent:     true,
			FeatureLimitWithTies:    true,
			FeatureStringAgg:        true,
		},

		Functions: map[string]string{
			"LENGTH": "LEN",
			"NOW":    "GETDATE",
		},
		Synonyms: map[string]string{
			"ISNULL":     "COALESCE",
			"DATALENGTH": "LENGTH",
		},
	})
}
