package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/logging"
	"ArxivDigest/internal/ports"
)

// scriptedGenerator answers prompts by the first matching substring.
type scriptedGenerator struct {
	answers map[string]string
	err     error
	prompts []string
}

func (s *scriptedGenerator) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	for marker, answer := range s.answers {
		if strings.Contains(prompt, marker) {
			return answer, nil
		}
	}
	return "", nil
}

var sample = domain.Article{
	ID:       "http://arxiv.org/abs/2101.00001v1",
	Title:    "A Differentiable Framework for Log-Ratio Reward Parameterization",
	Abstract: "We propose a framework.",
}

var robotics = domain.Category{Label: "Robotics", Topic: "robotics"}

func TestCleanStripsNarrative(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"preamble", "Here is the summary: Robots learn fast. This helps factories. Extra third.", "Robots learn fast. This helps factories."},
		{"quotes", `"Robots Learn To Walk"`, "Robots Learn To Walk."},
		{"markup", "<b>Robots</b> &amp; people <script>x</script>work together", "Robots & people work together."},
		{"numbered", "1. Robots learn\n\n2. Another option", "Robots learn Another option."},
		{"explanation", "Robots Learn To Walk This headline focuses on robots", "Robots Learn To Walk."},
		{"parenthetical", "Robots Learn (I removed jargon) To Walk", "Robots Learn To Walk."},
		{"no terminal punctuation", "Robots learn", "Robots learn."},
		{"trailing period", "Robots learn.", "Robots learn."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Clean(tc.in))
		})
	}
}

func TestTruncateWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncateWords("short", 60))

	long := "Scientists Teach Household Robots To Fold Laundry Using Only A Handful Of Examples"
	got := truncateWords(long, HeadlineLimit)
	assert.LessOrEqual(t, len([]rune(got)), HeadlineLimit)
	assert.True(t, strings.HasPrefix(long, got))
	assert.False(t, strings.HasSuffix(got, " "))
}

func TestRewriteHappyPath(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{answers: map[string]string{
		"two plain-language sentences": "Here you go: Robots were taught a new trick. It could make homes safer.",
		"engaging headline":            `"Robots Learn A Safer Way To Help At Home."`,
	}}
	r := New(gen, logging.Discard())

	out := r.Rewrite(context.Background(), sample, robotics)

	assert.Equal(t, "Robots were taught a new trick. It could make homes safer.", out.Blurb)
	assert.Equal(t, "Robots Learn A Safer Way To Help At Home", out.Headline)
	assert.False(t, out.Degraded)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], sample.Abstract)
	assert.Contains(t, gen.prompts[1], "robotics")
	assert.Contains(t, gen.prompts[1], "Robots were taught a new trick", "headline prompt carries the new summary")
}

func TestRewriteFallsBackWhenGeneratorFails(t *testing.T) {
	t.Parallel()

	r := New(&scriptedGenerator{err: errors.New("connection refused")}, logging.Discard())
	out := r.Rewrite(context.Background(), sample, robotics)

	assert.Equal(t, SummaryFailed, out.Blurb)
	assert.Equal(t, truncateWords(sample.Title, HeadlineLimit), out.Headline)
	assert.True(t, out.Degraded)
}

func TestRewriteFallsBackOnEmptyOutput(t *testing.T) {
	t.Parallel()

	r := New(&scriptedGenerator{answers: map[string]string{
		"two plain-language sentences": "   ",
		"engaging headline":            "\"\"",
	}}, logging.Discard())
	out := r.Rewrite(context.Background(), domain.Article{Title: "Short Title"}, robotics)

	assert.Equal(t, SummaryFailed, out.Blurb)
	assert.Equal(t, "Short Title", out.Headline)
}

func TestKeyword(t *testing.T) {
	t.Parallel()

	r := New(&scriptedGenerator{answers: map[string]string{"visual keyword": `"robot arm", factory`}}, logging.Discard())
	assert.Equal(t, "robot arm", r.Keyword(context.Background(), "Robots Fold Laundry", ""))

	r = New(&scriptedGenerator{err: errors.New("down")}, logging.Discard())
	assert.Equal(t, DefaultKeyword, r.Keyword(context.Background(), "Robots Fold Laundry", ""))
	assert.Equal(t, "robotics", r.Keyword(context.Background(), "Robots Fold Laundry", "robotics"))

	r = New(nil, nil)
	assert.Equal(t, DefaultKeyword, r.Keyword(context.Background(), "x", ""))
}
