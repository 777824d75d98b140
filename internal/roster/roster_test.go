package roster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestNormalize_DefaultRoster(t *testing.T) {
	tests := map[string][]string{
		"Seraphina": {
			"Princess Seraphina Elara Aethelgard",
			"Princess Seraphina",
			"princess seraphina",
			"PRINCESS SERAPHINA",
			"Seraphina",
			"SeRaPhInA",
			"Saintess",
			"Saintess of the White Lily",
			"세라피나",
			"Something Princess Seraphina Something",
		},
		"Valerius": {
			"Captain Valerius Arkright",
			"captain valerius",
			"Lion of Aethelgard",
			"발레리우스",
			"The Great Captain Valerius",
		},
		"Lyra":       {"Lyra Willowshade", "lyra", "Sage of the Sunstone Spire", "리라", "Lady Lyra of the Forest"},
		"Deadpool":   {"DEADPOOL", "DeAdPoOl", "Wade", "Merc with a Mouth", "데드풀"},
		"Demon Lord": {"Demon Lord of Miasma", "demon lord", "데몬로드"},
		"Vorlag":     {"General Vorlag the Annihilator", "General Vorlag", "Vorlag the Annihilator", "보를라그"},
		"Lilith":     {"Duchess Lilith the Puppeteer", "Lilith the Puppeteer", "릴리스"},
		"Volkov":     {"Count Volkov the Blighted Knight", "Volkov the Blighted Knight", "볼코프"},
		"Zarthus":    {"Archmage Zarthus the Void-Caller", "Zarthus the Void-Caller", "자르투스"},
		"Narrator":   {"Narrator", "narrator", "내레이터", "나레이션", "System", "system"},
		"강지훈":        {"강지훈", "지훈", "Kang Ji-hoon", "ji-hoon"},
		"윤서아":        {"서아", "Yoon Seo-ah"},
		"김태성":        {"Kim Tae-seong", "태성"},
	}

	table := Default()
	for want, inputs := range tests {
		for _, in := range inputs {
			t.Run(in, func(t *testing.T) {
				assert.Equal(t, want, table.Normalize(in))
			})
		}
	}
}

func TestNormalize_UnknownPreserved(t *testing.T) {
	table := Default()
	unknown := []string{
		"Unknown Character",
		"Random Name",
		"새로운캐릭터",
		"Character with Special !@# Symbols",
		"   Whitespace Padded   ",
		"123 Numeric Character",
	}
	for _, name := range unknown {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, table.Normalize(name))
		})
	}
}

func TestNormalize_EdgeCases(t *testing.T) {
	table := Default()
	assert.Equal(t, "", table.Normalize(""))
	assert.Equal(t, "   ", table.Normalize("   "))
	assert.Equal(t, "\t\n", table.Normalize("\t\n"))
	assert.Equal(t, "Seraphina", table.Normalize("  seraphina  "))
}

func TestNormalizeValue_TotalFunction(t *testing.T) {
	table := Default()
	assert.Nil(t, NormalizeValue(table, nil))
	assert.Equal(t, 123, NormalizeValue(table, 123))
	assert.Equal(t, 1.5, NormalizeValue(table, 1.5))
	assert.Equal(t, "", NormalizeValue(table, ""))
	assert.Equal(t, "Lyra", NormalizeValue(table, "lyra willowshade"))
}

func TestNormalize_DecomposedHangul(t *testing.T) {
	decomposed := norm.NFD.String("세라피나")
	require.NotEqual(t, "세라피나", decomposed)
	assert.Equal(t, "Seraphina", Default().Normalize(decomposed))

	// Unmatched decomposed input is still returned as given.
	unknown := norm.NFD.String("새로운캐릭터")
	assert.Equal(t, unknown, Default().Normalize(unknown))
}

func TestNormalize_LongestPatternWins(t *testing.T) {
	table, err := New([]Character{
		{Name: "Alpha", Aliases: []string{"lord"}},
		{Name: "Beta", Aliases: []string{"demon lord"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Beta", table.Normalize("The Demon Lord Speaks"))
	assert.Equal(t, "Alpha", table.Normalize("A Lord Speaks"))

	patterns := table.Patterns()
	require.NotEmpty(t, patterns)
	assert.Equal(t, "demon lord", patterns[0].Pattern)
}

func TestNormalize_TiesKeepRosterOrder(t *testing.T) {
	table, err := New([]Character{
		{Name: "First", Aliases: []string{"abcd"}},
		{Name: "Second", Aliases: []string{"wxyz"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "First", table.Normalize("abcd and wxyz"))
	assert.Equal(t, "First", table.Normalize("wxyz and abcd"))
}

func TestNormalize_InputContainedInPattern(t *testing.T) {
	table, err := New([]Character{{Name: "Seraphina", Aliases: []string{"princess seraphina"}}})
	require.NoError(t, err)
	assert.Equal(t, "Seraphina", table.Normalize("Princess Sera"))
}

func TestNormalize_Idempotent(t *testing.T) {
	table := Default()
	inputs := []string{
		"", " ", "a", "Sera", "Unknown Character", "PRINCESS SERAPHINA",
		"Captain Valerius Arkright", "새로운캐릭터", "지훈", "\xff\xfe", "Wade Wilson",
	}
	for _, p := range table.Patterns() {
		inputs = append(inputs, p.Pattern, strings.ToUpper(p.Pattern), p.Canonical)
	}
	for _, in := range inputs {
		once := table.Normalize(in)
		assert.Equal(t, once, table.Normalize(once), "input %q", in)
	}
}

func FuzzNormalizeIdempotent(f *testing.F) {
	for _, seed := range []string{"", "Seraphina", "Lady Lyra of the Forest", "Random Name", "세라피나", "  x  "} {
		f.Add(seed)
	}
	table := Default()
	f.Fuzz(func(t *testing.T, in string) {
		once := table.Normalize(in)
		if twice := table.Normalize(once); twice != once {
			t.Fatalf("Normalize(%q) = %q, Normalize again = %q", in, once, twice)
		}
	})
}

func TestCanonicals(t *testing.T) {
	got := Default().Canonicals()
	for _, want := range []string{
		"Seraphina", "Valerius", "Lyra", "Deadpool", "Demon Lord",
		"Vorlag", "Lilith", "Volkov", "Zarthus", "Narrator",
		"강지훈", "윤서아", "박민지", "김태성", "정미연",
	} {
		assert.Contains(t, got, want)
	}
	assert.IsIncreasing(t, got)
}

func TestVariations(t *testing.T) {
	v := Default().Variations("Seraphina")
	assert.Contains(t, v, "seraphina")
	assert.Contains(t, v, "princess seraphina")
	assert.Contains(t, v, "세라피나")
	assert.Equal(t, "seraphina", v[0])

	unknown := Default().Variations("Unknown Character")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestLoad(t *testing.T) {
	table, err := Load(strings.NewReader(`
characters:
  - name: Mira
    aliases: [captain mira, 미라]
`))
	require.NoError(t, err)
	assert.Equal(t, "Mira", table.Normalize("Captain Mira"))
	assert.Equal(t, []string{"mira", "captain mira", "미라"}, table.Variations("Mira"))
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"conflicting alias": `
characters:
  - name: A
    aliases: [shared]
  - name: B
    aliases: [Shared]
`,
		"missing name": `
characters:
  - aliases: [x]
`,
		"empty alias": `
characters:
  - name: A
    aliases: ["  "]
`,
		"unknown field": `
characters:
  - name: A
    nickname: b
`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(t.TempDir() + "/nope.yaml")
	assert.Error(t, err)
}
