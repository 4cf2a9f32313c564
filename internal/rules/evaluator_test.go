package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidy/internal/scanner"
)

var evalNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fileItem(name string) scanner.Item {
	return scanner.Item{Path: "/src/" + name, RelPath: name, Name: name, ModifiedAt: evalNow}
}

func TestEvaluateCondition_ExtensionAny(t *testing.T) {
	e := NewEvaluator(evalNow)

	assert.True(t, e.EvaluateCondition(ExtCondition(".pdf"), fileItem("Report.PDF")))
	assert.False(t, e.EvaluateCondition(ExtCondition(".pdf"), fileItem("report.txt")))

	folder := fileItem("docs.pdf")
	folder.IsDir = true
	assert.False(t, e.EvaluateCondition(ExtCondition(".pdf"), folder), "directories never match extensions")
}

func TestEvaluateCondition_NameContains(t *testing.T) {
	e := NewEvaluator(evalNow)
	cond := NameContainsCondition("screenshot", "screen shot")

	assert.True(t, e.EvaluateCondition(cond, fileItem("Screenshot 2025-06-01.png")))
	assert.True(t, e.EvaluateCondition(cond, fileItem("my SCREEN SHOT.jpg")))
	assert.False(t, e.EvaluateCondition(cond, fileItem("photo.png")))
	assert.False(t, e.EvaluateCondition(NameContainsCondition(""), fileItem("anything")), "empty substrings are skipped")
}

func TestEvaluateCondition_Kind(t *testing.T) {
	e := NewEvaluator(evalNow)

	assert.True(t, e.EvaluateCondition(KindCondition("image"), fileItem("photo.heic")))
	assert.False(t, e.EvaluateCondition(KindCondition("image"), fileItem("song.mp3")))
	assert.False(t, e.EvaluateCondition(KindCondition("nonsense"), fileItem("photo.png")))

	folder := fileItem("stuff")
	folder.IsDir = true
	assert.True(t, e.EvaluateCondition(KindCondition("folder"), folder))
	assert.False(t, e.EvaluateCondition(KindCondition("folder"), fileItem("stuff")))

	link := fileItem("shortcut")
	link.IsSymlink = true
	assert.True(t, e.EvaluateCondition(KindCondition("alias"), link))
	assert.True(t, e.EvaluateCondition(KindCondition("symlink"), link))
}

func TestEvaluateCondition_Temporal(t *testing.T) {
	e := NewEvaluator(evalNow)
	cond := Condition{Type: ConditionCreatedWithinDays, Days: 7}

	recent := fileItem("new.pdf")
	recent.ModifiedAt = evalNow.Add(-3 * 24 * time.Hour)
	assert.True(t, e.EvaluateCondition(cond, recent))

	boundary := fileItem("edge.pdf")
	boundary.ModifiedAt = evalNow.Add(-7 * 24 * time.Hour)
	assert.True(t, e.EvaluateCondition(cond, boundary), "exact cutoff is inside the window")

	old := fileItem("old.pdf")
	old.ModifiedAt = evalNow.Add(-8 * 24 * time.Hour)
	assert.False(t, e.EvaluateCondition(cond, old))
}

func TestEvaluateCondition_SizeAndFlags(t *testing.T) {
	e := NewEvaluator(evalNow)

	big := fileItem("big.iso")
	big.Size = 5000
	assert.True(t, e.EvaluateCondition(Condition{Type: ConditionSizeGTE, Size: 5000}, big))
	assert.False(t, e.EvaluateCondition(Condition{Type: ConditionSizeGTE, Size: 5001}, big))
	assert.True(t, e.EvaluateCondition(Condition{Type: ConditionSizeLTE, Size: 5000}, big))

	tagged := fileItem("tagged.pdf")
	tagged.HasTag = true
	assert.True(t, e.EvaluateCondition(FlagCondition(ConditionHasTag, true), tagged))
	assert.False(t, e.EvaluateCondition(FlagCondition(ConditionHasTag, false), tagged))

	assert.False(t, e.EvaluateCondition(Condition{Type: "unknown"}, fileItem("x")), "unknown types never match")
}

func TestMatchesRule_Modes(t *testing.T) {
	e := NewEvaluator(evalNow)

	all, err := NewRule("shots", "Shots", "Shots", true, false, ModeAll,
		[]Condition{KindCondition("image"), NameContainsCondition("screenshot")})
	require.NoError(t, err)

	assert.True(t, e.MatchesRule(all, fileItem("screenshot 12.png")))
	assert.False(t, e.MatchesRule(all, fileItem("screenshot notes.txt")), "all mode needs every condition")

	any, err := NewRule("media", "Media", "Media", true, false, ModeAny,
		[]Condition{KindCondition("image"), KindCondition("video")})
	require.NoError(t, err)

	assert.True(t, e.MatchesRule(any, fileItem("clip.mp4")))
	assert.True(t, e.MatchesRule(any, fileItem("photo.png")))
	assert.False(t, e.MatchesRule(any, fileItem("doc.pdf")))
}

func TestMatchesRule_DisabledNeverMatches(t *testing.T) {
	e := NewEvaluator(evalNow)
	rule, err := NewRule("pngs", "PNGs", "PNGs", true, false, ModeAll, []Condition{ExtCondition(".png")})
	require.NoError(t, err)
	rule.Enabled = false

	assert.False(t, e.MatchesRule(rule, fileItem("photo.png")))

	empty := rule
	empty.Enabled = true
	empty.Conditions = nil
	assert.False(t, e.MatchesRule(empty, fileItem("photo.png")), "no conditions never matches")
}

func TestFirstMatch_PriorityOrder(t *testing.T) {
	e := NewEvaluator(evalNow)
	active := BuiltInRules()

	// A PNG screenshot hits the screenshots rule, not png_images.
	rule, ok := e.FirstMatch(active, fileItem("Screenshot 2025-06-01 at 10.00.png"))
	require.True(t, ok)
	assert.Equal(t, "screenshots", rule.ID)

	// A plain PNG falls through to png_images.
	rule, ok = e.FirstMatch(active, fileItem("photo.png"))
	require.True(t, ok)
	assert.Equal(t, "png_images", rule.ID)

	// A compound archive suffix picks archives over nothing.
	rule, ok = e.FirstMatch(active, fileItem("bundle.tar.gz"))
	require.True(t, ok)
	assert.Equal(t, "archives", rule.ID)

	_, ok = e.FirstMatch(active, fileItem("mystery.xyz"))
	assert.False(t, ok)
}

func TestFirstMatch_JapaneseScreenshotName(t *testing.T) {
	e := NewEvaluator(evalNow)
	rule, ok := e.FirstMatch(BuiltInRules(), fileItem("スクリーンショット 2025-06-01.png"))
	require.True(t, ok)
	assert.Equal(t, "screenshots", rule.ID)
}
