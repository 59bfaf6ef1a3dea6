package symbols

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Fialia9363/fialiaoi-cpp/internal/lang"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		src  string
		l    lang.Language
		want []string
	}{
		{
			name: "cpp single function",
			src:  "int add(int a, int b) {\n  return a+b;\n}",
			l:    lang.Cpp,
			want: []string{"add"},
		},
		{
			name: "python single function",
			src:  "def add(a, b):\n    return a+b\n",
			l:    lang.Python,
			want: []string{"add"},
		},
		{
			name: "cpp several functions in order",
			src:  "void setup() {}\nstatic int loop(void) {\n}\nint main(int argc, char** argv)\n{\n}\n",
			l:    lang.Cpp,
			want: []string{"setup", "loop", "main"},
		},
		{
			name: "cpp control statement is a known false positive",
			src:  "int f() {\n  if (x) {\n  } else if (y) {\n  }\n}\n",
			l:    lang.Cpp,
			want: []string{"f", "if"},
		},
		{
			name: "cpp qualified method is a known false negative",
			src:  "void Foo::bar() {\n}\n",
			l:    lang.Cpp,
			want: nil,
		},
		{
			name: "python methods and duplicates",
			src:  "class A:\n    def run(self):\n        pass\n    def run(self, x):\n        pass\n\ndef  main ():\n    pass\n",
			l:    lang.Python,
			want: []string{"run", "run", "main"},
		},
		{
			name: "python unicode identifier",
			src:  "def grüße():\n    pass\n",
			l:    lang.Python,
			want: []string{"grüße"},
		},
		{
			name: "python pattern ignores cpp",
			src:  "int add(int a, int b) {\n}\n",
			l:    lang.Python,
			want: nil,
		},
		{
			name: "no match is empty",
			src:  "x = 1\n",
			l:    lang.Python,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Names(Scan(tt.src, tt.l)))
		})
	}
}

func TestScan_EmptyBuffer(t *testing.T) {
	for _, l := range lang.All {
		require.Empty(t, Scan("", l))
	}
}

func TestScan_UnknownLanguage(t *testing.T) {
	require.Nil(t, Scan("def f():\n", lang.Language(7)))
}

func TestScan_LineNumbers(t *testing.T) {
	src := "# héllo\n\ndef first():\n    pass\n\n\ndef second():\n    pass\n"

	got := Scan(src, lang.Python)

	require.Equal(t, []Symbol{
		{Name: "first", Line: 3},
		{Name: "second", Line: 7},
	}, got)
}

func TestScan_MultiLineParameters(t *testing.T) {
	// [^)]* crosses newlines, so a wrapped parameter list still matches.
	src := "int sum(int a,\n        int b)\n{\n}\n"
	require.Equal(t, []Symbol{{Name: "sum", Line: 1}}, Scan(src, lang.Cpp))
}

func TestScan_IsRepeatable(t *testing.T) {
	src := strings.Repeat("def f():\n    pass\n", 50)

	first := Scan(src, lang.Python)
	second := Scan(src, lang.Python)

	require.Len(t, first, 50)
	require.Equal(t, first, second)
	require.Equal(t, 99, first[49].Line)
}

func TestNames_Empty(t *testing.T) {
	require.Nil(t, Names(nil))
}
