package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PiazzaSanPietro/agvn/internal/server"
	"github.com/PiazzaSanPietro/agvn/internal/store"
	"github.com/PiazzaSanPietro/agvn/internal/story"
	"github.com/PiazzaSanPietro/agvn/internal/workflow"
)

func statsOf(t *testing.T, db string) story.Stats {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	return stats
}

func TestExport_Stdout(t *testing.T) {
	out, _, err := execute(NewExportCommand(textOptions(seedDatabase(t))), "")
	require.NoError(t, err)

	var snap story.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 2, snap.TotalChapters)
	assert.NotEmpty(t, snap.ExportID)
	require.Len(t, snap.Chapters, 2)
	assert.Len(t, snap.Chapters[0].Scripts, 3)
}

func TestExport_File(t *testing.T) {
	target := filepath.Join(t.TempDir(), "database_export.json")

	out, _, err := execute(NewExportCommand(textOptions(seedDatabase(t))), "", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Database exported to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var snap story.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 2, snap.TotalChapters)
}

func TestExport_FileJSON(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.json")
	opts := textOptions(seedDatabase(t))
	opts.Format = "json"

	out, _, err := execute(NewExportCommand(opts), "", "--output", target)
	require.NoError(t, err)

	var resp struct {
		Data exportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, target, resp.Data.Path)
	assert.Equal(t, 2, resp.Data.TotalChapters)
}

func TestExport_StdoutJSON(t *testing.T) {
	opts := textOptions(seedDatabase(t))
	opts.Format = "json"

	out, _, err := execute(NewExportCommand(opts), "")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   story.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.TotalChapters)
	require.Len(t, resp.Data.Chapters, 2)
}

func TestExport_CreatesParentDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "exports", "2026", "database_export.json")

	out, _, err := execute(NewExportCommand(textOptions(seedDatabase(t))), "", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Database exported to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var snap story.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 2, snap.TotalChapters)
}

func TestExport_UnwritableTarget(t *testing.T) {
	// The target's parent is a regular file.
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o644))

	_, _, err := execute(NewExportCommand(textOptions(seedDatabase(t))), "", "-o", filepath.Join(parent, "out.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestClear_Confirmed(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(NewClearCommand(textOptions(db)), "CLEAR\n")
	require.NoError(t, err)
	assert.Contains(t, out, "WARNING: This will permanently delete ALL data")
	assert.Contains(t, out, "Type 'CLEAR' to confirm database clear:")
	assert.Contains(t, out, "Database cleared successfully!")
	assert.Contains(t, out, "AUTOINCREMENT counters reset to 1")

	stats := statsOf(t, db)
	assert.Zero(t, stats.ChapterCount)
	assert.Zero(t, stats.LineCount)
}

func TestClear_Cancelled(t *testing.T) {
	for name, input := range map[string]string{
		"other text": "yes\n",
		"lower case": "clear\n",
		"no input":   "",
	} {
		t.Run(name, func(t *testing.T) {
			db := seedDatabase(t)

			out, _, err := execute(NewClearCommand(textOptions(db)), input)
			require.NoError(t, err)
			assert.Contains(t, out, "Database clear cancelled.")
			assert.Equal(t, 2, statsOf(t, db).ChapterCount)
		})
	}
}

func TestClear_Yes(t *testing.T) {
	db := seedDatabase(t)

	out, _, err := execute(NewClearCommand(textOptions(db)), "", "--yes")
	require.NoError(t, err)
	assert.NotContains(t, out, "WARNING")
	assert.Contains(t, out, "Database cleared successfully!")
	assert.Zero(t, statsOf(t, db).ChapterCount)

	// Counters are reset.
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	id, err := st.SaveChapter(context.Background(), story.BackgroundPark, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestClear_JSONPromptOnStderr(t *testing.T) {
	opts := textOptions(seedDatabase(t))
	opts.Format = "json"

	out, errOut, err := execute(NewClearCommand(opts), "CLEAR\n")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Type 'CLEAR'")

	var resp struct {
		Status string      `json:"status"`
		Data   clearResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Cleared)
	assert.Empty(t, resp.Data.VacuumError)
}

func TestImport_Transcript(t *testing.T) {
	db := seedDatabase(t)
	file := filepath.Join(t.TempDir(), "cutted_script_str.log")
	require.NoError(t, os.WriteFile(file, []byte("지훈: 다시 만났네.\nPrincess Seraphina: 여긴 어디지?\n"), 0o644))

	out, _, err := execute(NewImportCommand(textOptions(db)), "", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 chapter from "+file)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	chapter, err := st.GetChapter(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, story.BackgroundUnknown, chapter.SceneBackground)
	require.Len(t, chapter.Scripts, 2)
	assert.Equal(t, "강지훈", chapter.Scripts[0].Role)
	assert.Equal(t, "Seraphina", chapter.Scripts[1].Role)
	assert.Equal(t, story.EmotionNeutral, chapter.Scripts[1].Emotion)
}

func TestImport_ResponseFromStdin(t *testing.T) {
	db := emptyDatabase(t)
	response := `{"scene_background": "Park", "scripts": [{"role": "lyra", "emotion": "happy", "script": "좋은 날이야."}]}`

	out, _, err := execute(NewImportCommand(textOptions(db)), response, "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 chapter")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	chapter, err := st.GetChapter(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, story.BackgroundPark, chapter.SceneBackground)
	assert.Equal(t, "Lyra", chapter.Scripts[0].Role)
}

func TestImport_NothingToImport(t *testing.T) {
	db := emptyDatabase(t)
	file := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(file, []byte("no colon anywhere\n"), 0o644))

	out, _, err := execute(NewImportCommand(textOptions(db)), "", file)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing imported")
	assert.Zero(t, statsOf(t, db).ChapterCount)
}

func TestImport_InvalidChapter(t *testing.T) {
	db := emptyDatabase(t)
	response := `{"scene_background": "Moon", "scripts": []}`

	_, _, err := execute(NewImportCommand(textOptions(db)), response, "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrInvalidChapter)
}

func TestImport_MissingFile(t *testing.T) {
	_, _, err := execute(NewImportCommand(textOptions(emptyDatabase(t))), "", filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestImport_RosterOverride(t *testing.T) {
	roster := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(roster, []byte("characters:\n  - name: Mira\n    aliases: [captain mira]\n"), 0o644))

	db := emptyDatabase(t)
	opts := textOptions(db)
	opts.Config.RosterPath = roster

	_, _, err := execute(NewImportCommand(opts), "Captain Mira: 출항!\n", "-")
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	chapter, err := st.GetChapter(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Mira", chapter.Scripts[0].Role)
}

// fakeGenerator returns a fixed chapter, or err when set.
type fakeGenerator struct {
	chapter story.StructuredChapter
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (workflow.Generation, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return workflow.Generation{}, g.err
	}
	return workflow.Generation{Chapter: g.chapter, Raw: `{"raw": true}`}, nil
}

func generateOptions(db string, gen workflow.Generator) *RootOptions {
	opts := textOptions(db)
	opts.Generator = gen
	opts.IDs = workflow.NewFixedGenerator("req-0001", "req-0002")
	return opts
}

func TestGenerate_NewStory(t *testing.T) {
	db := seedDatabase(t)
	gen := &fakeGenerator{chapter: story.StructuredChapter{
		SceneBackground: story.BackgroundCafeInterior,
		Scripts: []story.Line{
			{Role: "princess seraphina", Emotion: story.EmotionHappy, Script: "새로운 이야기가 시작돼."},
		},
	}}

	out, errOut, err := execute(NewGenerateCommand(generateOptions(db, gen)), "", "--index", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Chapter 1 ===")
	assert.Contains(t, out, "Request: req-0001")
	assert.Contains(t, out, "Background: Cafe_Interior")
	assert.Contains(t, out, " 1. Seraphina (happy)")
	assert.Contains(t, errOut, "chapter generated")

	// The previous story was cleared before generating.
	stats := statsOf(t, db)
	assert.Equal(t, 1, stats.ChapterCount)
	require.Len(t, gen.prompts, 1)
	assert.NotContains(t, gen.prompts[0], "오늘은 말하지 못했어.")
}

func TestGenerate_Continuation(t *testing.T) {
	db := seedDatabase(t)
	gen := &fakeGenerator{chapter: story.StructuredChapter{
		SceneBackground: story.BackgroundPark,
		Scripts:         []story.Line{{Role: "Narrator", Emotion: story.EmotionNeutral, Script: "다음 날."}},
	}}
	opts := generateOptions(db, gen)
	opts.Format = "json"

	out, _, err := execute(NewGenerateCommand(opts), "", "--index", "3")
	require.NoError(t, err)

	var resp struct {
		Data workflow.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "req-0001", resp.Data.RequestID)
	assert.Equal(t, int64(3), resp.Data.ChapterID)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], store.ContinuityHeader+"Narrator: 교실 창밖으로 벚꽃이 흩날린다.")
	assert.Equal(t, 3, statsOf(t, db).ChapterCount)
}

func TestGenerate_GeneratorFailure(t *testing.T) {
	db := seedDatabase(t)
	gen := &fakeGenerator{err: errors.New("upstream unavailable")}

	out, _, err := execute(NewGenerateCommand(generateOptions(db, gen)), "", "--index", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, workflow.IsGenerationError(err))
	assert.Contains(t, out, "Error [GENERATION_FAILED]")
	assert.Equal(t, 2, statsOf(t, db).ChapterCount)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	out, _, err := execute(NewGenerateCommand(textOptions(emptyDatabase(t))), "", "--index", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [MISSING_API_KEY]")
}

func TestGenerate_IndexRequired(t *testing.T) {
	_, _, err := execute(NewGenerateCommand(textOptions(emptyDatabase(t))), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestGenerate_NegativeIndex(t *testing.T) {
	gen := &fakeGenerator{}
	_, _, err := execute(NewGenerateCommand(generateOptions(emptyDatabase(t), gen)), "", "--index=-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, gen.prompts)
}

func TestServe_StopsWhenContextCancelled(t *testing.T) {
	var ready *server.Server
	opts := &ServeOptions{RootOptions: textOptions(seedDatabase(t))}
	opts.Ready = func(s *server.Server) { ready = s }
	cmd := newServeCommand(opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd.SetContext(ctx)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	// The listener goroutine may still log after shutdown.
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, ready)
	assert.Contains(t, out.String(), "Serving on 127.0.0.1:0")
}

func TestRoster_List(t *testing.T) {
	out, _, err := execute(NewRosterCommand(textOptions("")), "")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Characters ===")
	assert.Contains(t, out, "Seraphina\n")
	assert.Contains(t, out, "강지훈\n")
}

func TestRoster_Variations(t *testing.T) {
	out, _, err := execute(NewRosterCommand(textOptions("")), "", "Seraphina")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Variations of Seraphina ===")
	assert.Contains(t, out, "princess seraphina\n")
}

func TestRoster_Normalizes(t *testing.T) {
	opts := textOptions("")
	opts.Format = "json"

	out, _, err := execute(NewRosterCommand(opts), "", "Princess Seraphina Elara Aethelgard")
	require.NoError(t, err)

	var resp struct {
		Data rosterEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Seraphina", resp.Data.Canonical)
	assert.Contains(t, resp.Data.Variations, "세라피나")
}

func TestRoster_Unknown(t *testing.T) {
	out, _, err := execute(NewRosterCommand(textOptions("")), "", "Unknown Character")
	require.NoError(t, err)
	assert.Contains(t, out, "Unknown Character is not in the roster")
}
