package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScript() *Script {
	return &Script{
		Name: "Test",
		Characters: map[string]Character{
			"A": {Side: SideLeft, NameColor: "#FF5809", Sprites: map[string]string{"normal": "a.png", "smile": "a_smile.png"}},
			"B": {Side: SideRight, Sprites: map[string]string{"normal": "b.png"}},
			"C": {Side: "center"},
		},
		Backgrounds: map[string]string{"room": "bedroom.png", "school": "school_gate.jpg"},
		Steps: []Step{
			{Speaker: "A", Text: "Hi", BG: "room"},
			{Speaker: "Narrator", Text: "A pause."},
			{Chapter: "Ch.2", Speaker: "B", Text: "Later."},
			{Text: "Narration without speaker.", BG: "school"},
			{Chapter: "Ch.3", Speaker: "A", Emotion: "smile"},
		},
	}
}

func TestStep_Defaults(t *testing.T) {
	tests := []struct {
		name        string
		step        Step
		narration   bool
		speakerName string
		emotion     string
	}{
		{"named speaker", Step{Speaker: "A"}, false, "A", "normal"},
		{"narrator sentinel", Step{Speaker: NarratorID}, true, "", "normal"},
		{"no speaker", Step{Text: "..."}, true, "", "normal"},
		{"explicit emotion", Step{Speaker: "A", Emotion: "angry"}, false, "A", "angry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.narration, tt.step.IsNarration())
			assert.Equal(t, tt.speakerName, tt.step.SpeakerName())
			assert.Equal(t, tt.emotion, tt.step.EmotionOrDefault())
		})
	}
}

func TestScript_Chapters(t *testing.T) {
	s := testScript()
	assert.Equal(t, []Chapter{{Title: "Ch.2", Index: 2}, {Title: "Ch.3", Index: 4}}, s.Chapters())
	assert.True(t, s.IsChapterStart(2))
	assert.False(t, s.IsChapterStart(1))
	assert.False(t, s.IsChapterStart(99))

	var empty *Script
	assert.Empty(t, empty.Chapters())
	assert.Equal(t, 0, empty.Len())
}

func TestScript_BackgroundAt(t *testing.T) {
	s := testScript()
	assert.Equal(t, "room", s.BackgroundAt(0))
	assert.Equal(t, "room", s.BackgroundAt(2))
	assert.Equal(t, "school", s.BackgroundAt(3))
	assert.Equal(t, "school", s.BackgroundAt(10))
	assert.Equal(t, "", s.BackgroundAt(-1))

	path, ok := s.BackgroundPath("school")
	assert.True(t, ok)
	assert.Equal(t, "school_gate.jpg", path)
	_, ok = s.BackgroundPath("park")
	assert.False(t, ok)
}

func TestScript_SideOf(t *testing.T) {
	s := testScript()
	assert.Equal(t, SideLeft, s.SideOf("A"))
	assert.Equal(t, SideRight, s.SideOf("B"))
	assert.Equal(t, SideNone, s.SideOf("C"), "unknown side values are not placed")
	assert.Equal(t, SideNone, s.SideOf("nobody"))
	assert.Equal(t, SideRight, SideLeft.Opposite())
	assert.Equal(t, SideNone, SideNone.Opposite())

	a, _ := s.Character("A")
	sprite, ok := a.Sprite("")
	assert.True(t, ok)
	assert.Equal(t, "a.png", sprite)
	_, ok = a.Sprite("crying")
	assert.False(t, ok)
}

func TestParse_JSONAndYAML(t *testing.T) {
	jsonDoc := []byte(`{
		"name": "Rain",
		"characters": {"二羽 一葉": {"side": "left", "sprites": {"normal": "21.png"}}},
		"backgrounds": {"room": "bedroom.png"},
		"steps": [
			{"speaker": "二羽 一葉", "text": "雨だ。", "bg": "room"},
			{"chapter": "第二章", "text": "翌日。"}
		]
	}`)

	yamlDoc := []byte(`
name: Rain
characters:
  二羽 一葉:
    side: left
    sprites:
      normal: 21.png
backgrounds:
  room: bedroom.png
steps:
  - speaker: 二羽 一葉
    text: 雨だ。
    bg: room
  - chapter: 第二章
    text: 翌日。
`)

	fromJSON, err := Parse(jsonDoc, "data/scripts/rain.json")
	require.NoError(t, err)
	fromYAML, err := Parse(yamlDoc, "rain.yaml")
	require.NoError(t, err)

	assert.Equal(t, "rain.json", fromJSON.FileName)
	assert.Equal(t, "rain.yaml", fromYAML.FileName)
	fromYAML.FileName = fromJSON.FileName
	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, []Chapter{{Title: "第二章", Index: 1}}, fromJSON.Chapters())
}

func TestParse_NormalizesLookupKeys(t *testing.T) {
	// "é" decomposed in the character table, composed in the step.
	doc := []byte(`{
		"name": "Accents",
		"characters": {"Rene\u0301": {"side": "right"}},
		"steps": [{"speaker": "Ren\u00e9", "text": "Bonjour."}]
	}`)

	s, err := Parse(doc, "accents.json")
	require.NoError(t, err)
	assert.Equal(t, SideRight, s.SideOf(s.Steps[0].Speaker))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`{}`), "script.txt")
	assert.Error(t, err)

	_, err = Parse([]byte(`{not json`), "broken.json")
	assert.Error(t, err)

	_, err = ParseStrict([]byte(`{"name":"x","steps":[{"text":"a","voice":"v.ogg"}]}`), "strict.json")
	assert.Error(t, err, "unknown step field should be rejected in strict mode")

	_, err = Parse([]byte(`{"name":"x","steps":[{"text":"a","voice":"v.ogg"}]}`), "lenient.json")
	assert.NoError(t, err)
}

func TestValidateSchema(t *testing.T) {
	valid := []byte(`{"name":"ok","steps":[{"speaker":"A","text":"Hi"}]}`)
	assert.NoError(t, ValidateSchema(valid, "ok.json"))

	validYAML := []byte("name: ok\nsteps:\n  - text: Hi\n")
	assert.NoError(t, ValidateSchema(validYAML, "ok.yml"))

	invalid := []byte(`{"name":"","steps":[],"extra":true}`)
	err := ValidateSchema(invalid, "bad.json")
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.GreaterOrEqual(t, len(schemaErr.Problems), 3)

	badSide := []byte("name: ok\ncharacters:\n  A:\n    side: up\nsteps:\n  - text: Hi\n")
	assert.Error(t, ValidateSchema(badSide, "side.yaml"))
}
