package ai

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: prompt composition
//
// For any style and diff, the composed prompt is deterministic, carries the
// guidelines unchanged and embeds the diff verbatim between the markers.

func genStyle() gopter.Gen {
	return gen.OneConstOf(StyleConventional, StyleCasual, StyleFormal, Style("other"))
}

func TestCompose_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(7)

	properties := gopter.NewProperties(parameters)

	properties.Property("diff appears verbatim between markers", prop.ForAll(
		func(style Style, diff string) bool {
			prompt := Compose(style, diff)
			start := strings.Index(prompt, DiffStart+"\n")
			if start < 0 || !strings.HasSuffix(prompt, "\n"+DiffEnd) {
				return false
			}
			body := prompt[start+len(DiffStart)+1 : len(prompt)-len(DiffEnd)-1]
			return body == diff
		},
		genStyle(),
		gen.AnyString(),
	))

	properties.Property("guidelines are carried unchanged", prop.ForAll(
		func(style Style, diff string) bool {
			return strings.Contains(Compose(style, diff), "\n"+Guidelines+"\n")
		},
		genStyle(),
		gen.AnyString(),
	))

	properties.Property("composition is deterministic", prop.ForAll(
		func(style Style, diff string) bool {
			return Compose(style, diff) == Compose(style, diff)
		},
		genStyle(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
