package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/question"
)

func bank(t *testing.T) []question.Question {
	t.Helper()
	b, err := question.DefaultBank()
	require.NoError(t, err)
	return b
}

func find(t *testing.T, id string) question.Question {
	t.Helper()
	for _, q := range bank(t) {
		if q.ID == id {
			return q
		}
	}
	t.Fatalf("question %s not in bank", id)
	return question.Question{}
}

func TestAsk_Event(t *testing.T) {
	q := find(t, "marriage")
	var out bytes.Buffer

	item, err := ask(bufio.NewScanner(strings.NewReader("maybe\nyes\n2012-05-04\n")), &out, q)
	require.NoError(t, err)
	assert.Equal(t, q.Item("yes", "2012-05-04"), item)
	assert.Contains(t, out.String(), q.Text)

	item, err = ask(bufio.NewScanner(strings.NewReader("n\n")), &out, q)
	require.NoError(t, err)
	assert.Equal(t, "no", item.Answer)
	assert.Empty(t, item.ReportedDate)
}

func TestAsk_Trait(t *testing.T) {
	q := find(t, "temperament")
	var out bytes.Buffer

	item, err := ask(bufio.NewScanner(strings.NewReader("9\n3\n")), &out, q)
	require.NoError(t, err)
	assert.Equal(t, "air", item.Answer)
	assert.Equal(t, model.TagTemperament, item.Tag)
	assert.Contains(t, out.String(), "Curious, sociable, restless")

	item, err = ask(bufio.NewScanner(strings.NewReader("Water\n")), &out, q)
	require.NoError(t, err)
	assert.Equal(t, "water", item.Answer)
}

func TestAsk_Quit(t *testing.T) {
	var out bytes.Buffer
	_, err := ask(bufio.NewScanner(strings.NewReader("q\n")), &out, find(t, "marriage"))
	assert.ErrorIs(t, err, errQuit)

	_, err = ask(bufio.NewScanner(strings.NewReader("")), &out, find(t, "temperament"))
	assert.ErrorIs(t, err, errQuit)
}

func TestResolveAnswer(t *testing.T) {
	b := bank(t)

	item, err := resolveAnswer(b, model.EvidenceItem{QuestionID: "marriage", Answer: "yes", ReportedDate: "2012-05-04"})
	require.NoError(t, err)
	assert.Equal(t, model.TagMarriage, item.Tag)
	assert.Equal(t, 0.85, item.Weight)

	item, err = resolveAnswer(b, model.EvidenceItem{QuestionID: "marriage", Answer: "yes", Weight: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0.3, item.Weight)

	_, err = resolveAnswer(b, model.EvidenceItem{QuestionID: "custom", Answer: "yes"})
	assert.Error(t, err)

	item, err = resolveAnswer(b, model.EvidenceItem{QuestionID: "custom", Tag: model.TagAccident, Answer: "no", Weight: 0.5})
	require.NoError(t, err)
	assert.Equal(t, model.TagAccident, item.Tag)
}

func TestAnswerFile_Decodes(t *testing.T) {
	var f answerFile
	err := yaml.Unmarshal([]byte(`
answers:
  - {question_id: marriage, answer: "yes", reported_date: "2012-05-04"}
  - {question_id: temperament, answer: air}
`), &f)
	require.NoError(t, err)
	require.Len(t, f.Answers, 2)
	assert.Equal(t, "2012-05-04", f.Answers[0].ReportedDate)
	assert.Equal(t, "air", f.Answers[1].Answer)
}

func TestPrintResult(t *testing.T) {
	loc := time.FixedZone("+05:30", 5*3600+1800)
	at := func(clock string) time.Time {
		t, _ := time.ParseInLocation("2006-01-02 15:04", "1985-10-24 "+clock, loc)
		return t.UTC()
	}
	s := model.ConfidenceState{
		Window:          model.Span{Start: at("14:00"), End: at("15:00")},
		Reported:        at("14:30"),
		BestEstimate:    at("15:00"),
		Confidence:      60,
		Reliability:     model.ReliabilityMedium,
		BoundaryClamped: true,
		Credible:        model.Span{Start: at("14:58"), End: at("15:00")},
		Applied: []model.AppliedEvidence{
			{Item: model.EvidenceItem{Tag: model.TagMarriage}, Informative: true},
			{Item: model.EvidenceItem{Tag: model.TagAccident}},
		},
	}

	var out bytes.Buffer
	printResult(&out, s, loc, 0.9)
	text := out.String()
	assert.Contains(t, text, "1985-10-24 15:00 +05:30 (09:30 UTC)")
	assert.Contains(t, text, "60.0 (medium)")
	assert.Contains(t, text, "14:58 - 15:00")
	assert.Contains(t, text, "clamped")
	assert.Contains(t, text, "Informative evidence: marriage\n")
}

func TestFormatLongitude(t *testing.T) {
	assert.Equal(t, " 1°05' aquarius", formatLongitude(301.09))
	assert.Equal(t, "29°30' pisces", formatLongitude(359.5))
}

func TestDefaultConfigFile(t *testing.T) {
	data, err := defaultConfigFile()
	require.NoError(t, err)
	assert.Contains(t, string(data), "# lagna configuration file")
	assert.Contains(t, string(data), "# Named chart choices")

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, model.DefaultConfig().Chart, cfg.Chart)
	assert.Equal(t, model.DefaultConfig().Rectification, cfg.Rectification)
}

func TestRunQuestionnaire_QuitFinishesSession(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Concurrency.Workers = 2
	m := newApp(cfg).sessions(bank(t), cfg.Chart)

	ctx := context.Background()
	state, err := m.Create(ctx, model.BirthQuery{
		Date: "1985-10-24", Time: "14:30", UTCOffset: "+05:30",
		Latitude: 18.5204, Longitude: 73.8567,
		Window: &model.TimeWindow{Start: "14:15", End: "14:45"},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runQuestionnaire(ctx, m, state.SessionID, strings.NewReader("q\n"), &out))
	assert.NotEmpty(t, out.String())

	done, err := m.State(state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExhausted, done.Status)
	assert.Empty(t, done.Applied)
}
