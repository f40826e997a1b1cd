package translate

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/transqlate/transqlate/pkg/emit"
)

// TestGoldenScript runs one postgres script through the batch pipeline for
// each target and compares the rendered output against golden files.
func TestGoldenScript(t *testing.T) {
	script, err := os.ReadFile("testdata/report.sql")
	require.NoError(t, err)

	for _, target := range []string{"mysql", "sqlserver", "sqlite"} {
		t.Run(target, func(t *testing.T) {
			tr := newTranslator(t, "postgres", target, emit.PolicyAnnotate)
			results, _, err := tr.Batch(context.Background(), string(script))
			require.NoError(t, err)

			var buf strings.Builder
			for _, res := range results {
				require.NoError(t, res.Err)
				buf.WriteString(res.Output)
				buf.WriteString(";\n")
			}
			g := goldie.New(t)
			g.Assert(t, "report_"+target, []byte(buf.String()))
		})
	}
}
