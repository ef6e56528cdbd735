// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package splitio

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type lineResult struct {
	n   int
	eol Eol
	out string
}

func streamLine(t *testing.T, src Source) lineResult {
	var out bytes.Buffer
	n, eol, err := StreamLine(src, &out)
	assert.NoError(t, err)
	assert.Equal(t, n, out.Len())
	return lineResult{n: n, eol: eol, out: out.String()}
}

func TestEol(t *testing.T) {
	assert.Equal(t, "LF", EolLF.String())
	assert.Equal(t, "CRLF", EolCRLF.String())
	assert.Equal(t, "", EolNone.String())

	assert.Equal(t, CharLF, EolLF.Bytes())
	assert.Equal(t, CharCRLF, EolCRLF.Bytes())
	assert.Nil(t, EolNone.Bytes())
}

func TestStreamLine(t *testing.T) {
	input := "line one\nline two\r\nline three\rstill\nline four"
	for size := 1; size < 20; size++ {
		t.Run(fmt.Sprintf("ChunkSize%d", size), func(t *testing.T) {
			src := newChunkSource(input, size)
			assert.Equal(t, lineResult{8, EolLF, "line one"}, streamLine(t, src))
			assert.Equal(t, lineResult{8, EolCRLF, "line two"}, streamLine(t, src))
			assert.Equal(t, lineResult{16, EolLF, "line three\rstill"}, streamLine(t, src))
			assert.Equal(t, lineResult{9, EolNone, "line four"}, streamLine(t, src))
			assert.Equal(t, lineResult{0, EolNone, ""}, streamLine(t, src))
		})
	}
}

func TestStreamLineEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sizes []int
		want  []lineResult
	}{
		{
			name:  "EmptyInput",
			input: "",
			want:  []lineResult{{0, EolNone, ""}},
		},
		{
			name:  "EmptyLines",
			input: "\n\r\n\n",
			want: []lineResult{
				{0, EolLF, ""},
				{0, EolCRLF, ""},
				{0, EolLF, ""},
				{0, EolNone, ""},
			},
		},
		{
			name:  "CRAtChunkBoundary",
			input: "abc\r\ndef",
			sizes: []int{4},
			want: []lineResult{
				{3, EolCRLF, "abc"},
				{3, EolNone, "def"},
			},
		},
		{
			name:  "CRAtChunkBoundaryNotFollowedByLF",
			input: "abc\rdef\n",
			sizes: []int{4},
			want: []lineResult{
				{7, EolLF, "abc\rdef"},
			},
		},
		{
			name:  "DoubleCR",
			input: "a\r\r\nb",
			sizes: []int{2, 1},
			want: []lineResult{
				{2, EolCRLF, "a\r"},
				{1, EolNone, "b"},
			},
		},
		{
			name:  "TrailingCR",
			input: "mac\r",
			sizes: []int{4},
			want: []lineResult{
				{4, EolNone, "mac\r"},
			},
		},
		{
			name:  "BinaryData",
			input: "\x00\n\xff\r\n\r",
			sizes: []int{1},
			want: []lineResult{
				{1, EolLF, "\x00"},
				{1, EolCRLF, "\xff"},
				{1, EolNone, "\r"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newChunkSource(tt.input, tt.sizes...)
			var got []lineResult
			for range tt.want {
				got = append(got, streamLine(t, src))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamLineChunkInvariance(t *testing.T) {
	input := "GET / HTTP/1.1\r\nHost: a\r\n\r\nbody\rmore\n\r\r\n\n\rend\r"

	var want []lineResult
	src := newChunkSource(input)
	for {
		r := streamLine(t, src)
		want = append(want, r)
		if r.eol == EolNone {
			break
		}
	}

	for _, plan := range chunkPlans(len(input)) {
		src := newChunkSource(input, plan...)
		var got []lineResult
		var rebuilt bytes.Buffer
		for {
			r := streamLine(t, src)
			got = append(got, r)
			rebuilt.WriteString(r.out)
			rebuilt.Write(r.eol.Bytes())
			if r.eol == EolNone {
				break
			}
		}
		assert.Equal(t, want, got, "plan %v", plan)
		assert.Equal(t, input, rebuilt.String(), "plan %v", plan)
	}
}

func TestStreamLineErrors(t *testing.T) {
	t.Run("Interrupted", func(t *testing.T) {
		src := newChunkSource("ab\r\ncd", 3)
		src.errs = []error{ErrInterrupted, nil, ErrInterrupted}
		assert.Equal(t, lineResult{2, EolCRLF, "ab"}, streamLine(t, src))
	})

	t.Run("Source", func(t *testing.T) {
		fatal := errors.New("connection reset")
		src := newChunkSource("ab\rcd", 3)
		src.errs = []error{nil, fatal}

		var out bytes.Buffer
		n, eol, err := StreamLine(src, &out)
		assert.Equal(t, fatal, err)
		assert.Equal(t, EolNone, eol)
		assert.Equal(t, 2, n)
		assert.Equal(t, "ab", out.String())
	})

	t.Run("Sink", func(t *testing.T) {
		fatal := errors.New("disk full")
		src := newChunkSource("abcdef\n", 3)
		w := &failWriter{n: 4, err: fatal}

		n, _, err := StreamLine(src, w)
		assert.Equal(t, fatal, err)
		assert.Equal(t, 4, n)
	})

	t.Run("Done", func(t *testing.T) {
		var ls LineScan
		src := newChunkSource("a\nb")
		assert.NoError(t, ls.Run(src, io.Discard))
		assert.True(t, ls.Done())
		assert.Equal(t, ErrScanDone, ls.Run(src, io.Discard))

		ls.Reset()
		assert.NoError(t, ls.Run(src, io.Discard))
		assert.Equal(t, 1, ls.Streamed())
		assert.Equal(t, EolNone, ls.Eol())
	})
}
