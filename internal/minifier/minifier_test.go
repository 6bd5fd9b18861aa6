package minifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		wantNil bool
		wantErr bool
	}{
		{name: "", kind: JavaScript},
		{name: "tdewolff", kind: CSS},
		{name: " TdeWolff ", kind: JavaScript},
		{name: "none", kind: CSS, wantNil: true},
		{name: "closure", kind: JavaScript, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.name, func(t *testing.T) {
			m, err := New(tt.kind, tt.name, zap.NewNop())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMinifier)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, m)
			} else {
				assert.NotNil(t, m)
			}
		})
	}
}

func TestTdewolffJavaScript(t *testing.T) {
	m, err := New(JavaScript, NameTdewolff, nil)
	require.NoError(t, err)

	src := "\n  var answer   =   42 ;\n  console.log( answer ) ;\n"
	out, err := m.Minify(src)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
	assert.Contains(t, out, "console.log(")
	assert.NotContains(t, out, "\n  ")
}

func TestTdewolffCSS(t *testing.T) {
	m, err := New(CSS, NameTdewolff, nil)
	require.NoError(t, err)

	out, err := m.Minify("p  {  color : red ;  }")
	require.NoError(t, err)
	assert.Equal(t, "p{color:red}", out)
}

func TestTdewolffJavaScriptError(t *testing.T) {
	m, err := New(JavaScript, NameTdewolff, nil)
	require.NoError(t, err)

	_, err = m.Minify("var = ;")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{NameNone, NameTdewolff}, Names())
}
