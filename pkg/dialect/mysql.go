package dialect

func init() {
	Register(&Dialect{
		Name:    "mysql",
		Aliases: []string{"mariadb"},

		IdentQuotes:         []QuotePair{{'`', '`'}},
		DoubleQuotedStrings: true,
		HashComments:        true,

		RowLimit:         RowLimitLimit,
		Placeholder:      PlaceholderQuestion,
		ConcatStyle:      ConcatFunc,
		RecursiveKeyword: true,
		StringAggFunc:    "GROUP_CONCAT",

		Features: map[Feature]bool{
			FeatureRecursiveCTE:     true,
			FeatureLateralJoin:      true,
			FeatureWindowFunctions:  true,
			FeatureWindowFrameRange: true,
			FeatureBooleanLiterals:  true,
			FeatureStringAgg:        true,
		},

		Functions: map[string]string{
			"LENGTH": "CHAR_LENGTH",
			"NOW":    "NOW",
		},
		Synonyms: map[string]string{
			"IFNULL": "COALESCE",
			"LENGTH": "LENGTH",
			"LOCATE": "POSITION",
		},
	})
}
