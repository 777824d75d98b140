package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/PiazzaSanPietro/agvn/internal/store"
	"github.com/PiazzaSanPietro/agvn/internal/story"
	"github.com/PiazzaSanPietro/agvn/internal/testutil"
)

func init() {
	// Golden files hold plain text.
	color.NoColor = true
}

// seedDatabase creates a database with two chapters created one second
// apart, starting at testutil.Epoch.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := emptyDatabase(t)

	st, err := store.Open(path, store.WithClock(testutil.NewStepClock().Now))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, err = st.SaveChapter(ctx, story.BackgroundClassroomDay, []story.Line{
		{Role: "Narrator", Emotion: story.EmotionNeutral, Script: "교실 창밖으로 벚꽃이 흩날린다."},
		{Role: "강지훈", Emotion: story.EmotionHappy, Script: "좋은 아침, 서아야!"},
		{Role: "윤서아", Emotion: story.EmotionShy, Script: "...안녕, 지훈아."},
	})
	require.NoError(t, err)
	_, err = st.SaveChapter(ctx, story.BackgroundSchoolRooftop, []story.Line{
		{Role: "강지훈", Emotion: story.EmotionSad, Script: "오늘은 말하지 못했어."},
	})
	require.NoError(t, err)

	return path
}

// emptyDatabase returns a path in a fresh temp dir. The file does not
// exist yet.
func emptyDatabase(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "agvn.db")
}

func textOptions(db string) *RootOptions {
	return &RootOptions{Format: "text", LogFormat: "console", Database: db}
}

// execute runs cmd with args and stdin, returning stdout and stderr.
func execute(cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func assertGolden(t *testing.T, name, actual string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(actual))
}
