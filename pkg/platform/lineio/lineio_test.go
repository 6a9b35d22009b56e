package lineio

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll reads through a 16-byte buffer so long lines arrive in several chunks.
func readAll(t *testing.T, input string, limit int) ([]string, []int) {
	t.Helper()
	lr := NewReader(bufio.NewReaderSize(strings.NewReader(input), 16), limit)
	var (
		lines   []string
		tooLong []int
	)
	for n := 1; ; n++ {
		line, err := lr.ReadLine()
		if err == io.EOF {
			return lines, tooLong
		}
		if err == ErrLineTooLong {
			tooLong = append(tooLong, n)
			continue
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestReader_ReadLine(t *testing.T) {
	t.Run("strips terminators", func(t *testing.T) {
		lines, tooLong := readAll(t, "a\r\nb\n\nlast", 100)
		assert.Equal(t, []string{"a", "b", "", "last"}, lines)
		assert.Empty(t, tooLong)
	})

	t.Run("empty input is EOF", func(t *testing.T) {
		lines, _ := readAll(t, "", 100)
		assert.Empty(t, lines)
	})

	t.Run("line longer than the buffer is joined", func(t *testing.T) {
		long := strings.Repeat("x", 50)
		lines, tooLong := readAll(t, long+"\nnext\n", 100)
		assert.Equal(t, []string{long, "next"}, lines)
		assert.Empty(t, tooLong)
	})

	t.Run("oversized line is skipped and reading continues", func(t *testing.T) {
		lines, tooLong := readAll(t, "first\n"+strings.Repeat("y", 500)+"\nthird\n", 40)
		assert.Equal(t, []string{"first", "third"}, lines)
		assert.Equal(t, []int{2}, tooLong)
	})

	t.Run("oversized final line without terminator", func(t *testing.T) {
		lines, tooLong := readAll(t, "ok\n"+strings.Repeat("z", 100), 40)
		assert.Equal(t, []string{"ok"}, lines)
		assert.Equal(t, []int{2}, tooLong)
	})

	t.Run("limit is inclusive", func(t *testing.T) {
		exact := strings.Repeat("w", 40)
		lines, tooLong := readAll(t, exact+"\n", 40)
		assert.Equal(t, []string{exact}, lines)
		assert.Empty(t, tooLong)
	})
}
