package compat

import (
	"testing"

	"github.com/transqlate/transqlate/pkg/ast"
	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/parser"
)

func parse(t *testing.T, input, dialectName string) ast.Statement {
	t.Helper()
	d, err := dialect.Lookup(dialectName)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", dialectName, err)
	}
	stmt, _, err := parser.Parse(input, d)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	return stmt
}

func TestRequiredFeatures(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		input   string
		want    []dialect.Feature
	}{
		{
			name:    "plain select needs nothing",
			dialect: "postgres",
			input:   "SELECT id FROM t WHERE a = 1 LIMIT 10",
			want:    nil,
		},
		{
			name:    "recursive cte",
			dialect: "postgres",
			input:   "WITH RECURSIVE r AS (SELECT 1 AS n UNION ALL SELECT n + 1 FROM r) SELECT * FROM r",
			want:    []dialect.Feature{dialect.FeatureRecursiveCTE},
		},
		{
			name:    "non-recursive cte needs nothing",
			dialect: "postgres",
			input:   "WITH c AS (SELECT 1) SELECT * FROM c",
			want:    nil,
		},
		{
			name:    "merge",
			dialect: "sqlserver",
			input:   "MERGE INTO a USING b ON a.id = b.id WHEN MATCHED THEN DELETE",
			want:    []dialect.Feature{dialect.FeatureMergeStatement},
		},
		{
			name:    "full outer join",
			dialect: "postgres",
			input:   "SELECT 1 FROM a FULL OUTER JOIN b ON a.id = b.id",
			want:    []dialect.Feature{dialect.FeatureFullOuterJoin},
		},
		{
			name:    "lateral",
			dialect: "postgres",
			input:   "SELECT 1 FROM a, LATERAL (SELECT x FROM b) AS l",
			want:    []dialect.Feature{dialect.FeatureLateralJoin},
		},
		{
			name:    "window with range frame",
			dialect: "postgres",
			input:   "SELECT SUM(x) OVER (ORDER BY ts RANGE UNBOUNDED PRECEDING) FROM t",
			want:    []dialect.Feature{dialect.FeatureWindowFunctions, dialect.FeatureWindowFrameRange},
		},
		{
			name:    "intersect",
			dialect: "postgres",
			input:   "SELECT a FROM t INTERSECT SELECT b FROM u",
			want:    []dialect.Feature{dialect.FeatureIntersectExcept},
		},
		{
			name:    "boolean literal",
			dialect: "postgres",
			input:   "SELECT 1 FROM t WHERE active = TRUE",
			want:    []dialect.Feature{dialect.FeatureBooleanLiterals},
		},
		{
			name:    "returning",
			dialect: "postgres",
			input:   "INSERT INTO t (a) VALUES (1) RETURNING id",
			want:    []dialect.Feature{dialect.FeatureReturningClause},
		},
		{
			name:    "limit percent",
			dialect: "sqlserver",
			input:   "SELECT TOP 10 PERCENT id FROM t",
			want:    []dialect.Feature{dialect.FeatureLimitPercent},
		},
		{
			name:    "with ties",
			dialect: "sqlserver",
			input:   "SELECT TOP 10 WITH TIES id FROM t ORDER BY id",
			want:    []dialect.Feature{dialect.FeatureLimitWithTies},
		},
		{
			name:    "string agg",
			dialect: "mysql",
			input:   "SELECT GROUP_CONCAT(name SEPARATOR ',') FROM t",
			want:    []dialect.Feature{dialect.FeatureStringAgg},
		},
		{
			name:    "feature inside subquery is found",
			dialect: "postgres",
			input:   "SELECT 1 FROM t WHERE id IN (SELECT id FROM a FULL JOIN b ON a.id = b.id)",
			want:    []dialect.Feature{dialect.FeatureFullOuterJoin},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequiredFeatures(parse(t, tt.input, tt.dialect))
			if len(got) != len(tt.want) {
				t.Fatalf("RequiredFeatures = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("feature %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCheckAgainstTarget(t *testing.T) {
	merge := parse(t, "MERGE INTO a USING b ON a.id = b.id WHEN MATCHED THEN DELETE", "sqlserver")

	sqlite, _ := dialect.Lookup("sqlite")
	if missing := Check(merge, sqlite); len(missing) != 1 || missing[0] != dialect.FeatureMergeStatement {
		t.Errorf("Check(merge, sqlite) = %v, want [MERGE_STATEMENT]", missing)
	}

	pg, _ := dialect.Lookup("postgres")
	if missing := Check(merge, pg); missing != nil {
		t.Errorf("Check(merge, postgres) = %v, want none", missing)
	}
}

func TestCheckReturningAcrossTargets(t *testing.T) {
	stmt := parse(t, "INSERT INTO t (a) VALUES (1) RETURNING id", "postgres")
	for name, wantMissing := range map[string]bool{
		"postgres":  false,
		"sqlite":    false,
		"mysql":     true,
		"oracle":    true,
		"sqlserver": true,
	} {
		target, _ := dialect.Lookup(name)
		missing := Check(stmt, target)
		if got := len(missing) > 0; got != wantMissing {
			t.Errorf("%s: missing = %v, want missing=%v", name, missing, wantMissing)
		}
	}
}
