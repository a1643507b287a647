package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendTurn(t *testing.T) {
	s := NewSession()

	i, err := s.AppendTurn(RoleUser, "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = s.AppendTurn(RoleAssistant, "Paris is the capital.")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "Paris is the capital.", turns[1].Content)
}

func TestAppendTurnEmptyContent(t *testing.T) {
	s := NewSession()
	i, err := s.AppendTurn(RoleUser, "")
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Equal(t, "", s.Turns()[0].Content)
}

func TestAppendTurnUnknownRole(t *testing.T) {
	s := NewSession()
	_, err := s.AppendTurn(Role("system"), "hi")
	require.ErrorIs(t, err, ErrUnknownRole)
	assert.Equal(t, 0, s.Len())
}

func TestTurnsIsSnapshot(t *testing.T) {
	s := NewSession()
	_, _ = s.AppendTurn(RoleUser, "one")

	turns := s.Turns()
	turns[0].Content = "changed"
	_, _ = s.AppendTurn(RoleAssistant, "two")

	assert.Equal(t, "one", s.Turns()[0].Content)
	assert.Len(t, turns, 1)
}

func TestSetCitation(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		wantErr bool
	}{
		{name: "assistant turn", index: 1},
		{name: "user turn", index: 0, wantErr: true},
		{name: "negative", index: -1, wantErr: true},
		{name: "past end", index: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			_, _ = s.AppendTurn(RoleUser, "q")
			_, _ = s.AppendTurn(RoleAssistant, "a")

			err := s.SetCitation(tt.index, Citation{BookName: "Geo101"})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotAssistantTurn)
				assert.Equal(t, 0, s.CitationCount())
				return
			}
			require.NoError(t, err)
			c, ok := s.Citation(tt.index)
			require.True(t, ok)
			assert.Equal(t, "Geo101", c.BookName)
		})
	}
}

func TestSetCitationLastWriteWins(t *testing.T) {
	s := NewSession()
	_, _ = s.AppendTurn(RoleUser, "q")
	i, _ := s.AppendTurn(RoleAssistant, "a")

	require.NoError(t, s.SetCitation(i, Citation{BookName: "first", PageNumber: PageInt(1)}))
	require.NoError(t, s.SetCitation(i, Citation{BookName: "second", PageNumber: PageInt(2)}))

	c, ok := s.Citation(i)
	require.True(t, ok)
	assert.Equal(t, "second", c.BookName)
	assert.Equal(t, "2", c.PageNumber.String())
	assert.Equal(t, 1, s.CitationCount())
}

func TestCitationAbsent(t *testing.T) {
	s := NewSession()
	_, ok := s.Citation(0)
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSession()
	_, _ = s.AppendTurn(RoleUser, "q")
	i, _ := s.AppendTurn(RoleAssistant, "a")
	require.NoError(t, s.SetCitation(i, Citation{BookName: "Geo101", Content: "Paris is..."}))

	c := s.Clone()
	c.RewriteText(strings.ToUpper)

	assert.Equal(t, "a", s.Turns()[1].Content)
	orig, _ := s.Citation(i)
	assert.Equal(t, "Geo101", orig.BookName)

	assert.Equal(t, "A", c.Turns()[1].Content)
	got, _ := c.Citation(i)
	assert.Equal(t, "GEO101", got.BookName)
	assert.Equal(t, "PARIS IS...", got.Content)
}

func TestCitedIndexes(t *testing.T) {
	s := NewSession()
	for i := 0; i < 3; i++ {
		_, _ = s.AppendTurn(RoleUser, "q")
		_, _ = s.AppendTurn(RoleAssistant, "a")
	}
	require.NoError(t, s.SetCitation(5, Citation{}))
	require.NoError(t, s.SetCitation(1, Citation{}))

	assert.Equal(t, []int{1, 5}, s.CitedIndexes())
}

func TestPageNumberJSON(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantText    string
		wantNumeric bool
		wantOut     string
	}{
		{name: "integer", in: `12`, wantText: "12", wantNumeric: true, wantOut: `12`},
		{name: "string", in: `"xii"`, wantText: "xii", wantOut: `"xii"`},
		{name: "numeric string stays string", in: `"12"`, wantText: "12", wantOut: `"12"`},
		{name: "float", in: `12.5`, wantText: "12.5", wantNumeric: true, wantOut: `12.5`},
		{name: "empty string", in: `""`, wantText: "", wantOut: `""`},
		{name: "null", in: `null`, wantText: "", wantOut: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PageNumber
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.Equal(t, tt.wantText, p.String())
			assert.Equal(t, tt.wantNumeric, p.IsNumeric())

			out, err := json.Marshal(p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, string(out))
		})
	}
}

func TestCitationEmptyPageRoundTrip(t *testing.T) {
	in := `{"book_name":"B","page_number":"","content":"x"}`
	var c Citation
	require.NoError(t, json.Unmarshal([]byte(in), &c))
	assert.False(t, c.PageNumber.IsZero())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	var missing Citation
	require.NoError(t, json.Unmarshal([]byte(`{"book_name":"B","content":"x"}`), &missing))
	assert.True(t, missing.PageNumber.IsZero())
	out, err = json.Marshal(missing)
	require.NoError(t, err)
	assert.JSONEq(t, `{"book_name":"B","page_number":null,"content":"x"}`, string(out))
}

func TestPageNumberRejectsObjects(t *testing.T) {
	var p PageNumber
	err := json.Unmarshal([]byte(`{"n":1}`), &p)
	assert.Error(t, err)
}

func TestCitationJSON(t *testing.T) {
	in := `{"book_name":"Geo101","page_number":12,"content":"Paris is..."}`
	var c Citation
	require.NoError(t, json.Unmarshal([]byte(in), &c))
	assert.Equal(t, Citation{BookName: "Geo101", PageNumber: PageInt(12), Content: "Paris is..."}, c)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{name: "defaults", s: DefaultSettings()},
		{name: "bounds", s: Settings{SearchDepth: 10, ConfidenceThreshold: 0}},
		{name: "depth too low", s: Settings{SearchDepth: 0, ConfidenceThreshold: 0.5}, wantErr: true},
		{name: "depth too high", s: Settings{SearchDepth: 11, ConfidenceThreshold: 0.5}, wantErr: true},
		{name: "threshold too high", s: Settings{SearchDepth: 3, ConfidenceThreshold: 1.05}, wantErr: true},
		{name: "threshold negative", s: Settings{SearchDepth: 3, ConfidenceThreshold: -0.1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type upper struct{}

func (upper) Transform(s *Session) error {
	s.RewriteText(strings.ToUpper)
	return nil
}

func TestChain(t *testing.T) {
	s := NewSession()
	_, _ = s.AppendTurn(RoleUser, "hello")
	require.NoError(t, Chain(s, upper{}))
	assert.Equal(t, "HELLO", s.Turns()[0].Content)
}
