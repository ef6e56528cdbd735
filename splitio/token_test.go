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

type tokenResult struct {
	n     int
	found bool
	out   string
}

func streamToken(t *testing.T, src Source, token string) tokenResult {
	var out bytes.Buffer
	n, found, err := StreamUntilToken(src, []byte(token), &out)
	assert.NoError(t, err)
	assert.Equal(t, n, out.Len())
	return tokenResult{n: n, found: found, out: out.String()}
}

func TestStreamUntilToken(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		src := newChunkSource("123456")
		assert.Equal(t, tokenResult{6, false, "123456"}, streamToken(t, src, "78"))
	})

	t.Run("Consecutive", func(t *testing.T) {
		src := newChunkSource("12345678")
		assert.Equal(t, tokenResult{2, true, "12"}, streamToken(t, src, "34"))
		assert.Equal(t, tokenResult{2, true, "56"}, streamToken(t, src, "78"))
		assert.Equal(t, "", src.rest())
	})

	t.Run("Repetition", func(t *testing.T) {
		src := newChunkSource("bananas for nana")
		assert.Equal(t, tokenResult{2, true, "ba"}, streamToken(t, src, "nan"))
		assert.Equal(t, tokenResult{7, true, "as for "}, streamToken(t, src, "nan"))
		assert.Equal(t, tokenResult{1, false, "a"}, streamToken(t, src, "nan"))
		assert.Equal(t, tokenResult{0, false, ""}, streamToken(t, src, "nan"))
	})

	t.Run("EmptyToken", func(t *testing.T) {
		src := newChunkSource("abc")
		n, found, err := StreamUntilToken(src, nil, io.Discard)
		assert.Equal(t, ErrEmptyToken, err)
		assert.Equal(t, 0, n)
		assert.False(t, found)
		assert.Equal(t, 0, src.peeks)
	})

	t.Run("EmptySource", func(t *testing.T) {
		src := newChunkSource("")
		assert.Equal(t, tokenResult{0, false, ""}, streamToken(t, src, "x"))
	})

	t.Run("SingleByteToken", func(t *testing.T) {
		src := newChunkSource("a,b,,c", 1)
		assert.Equal(t, tokenResult{1, true, "a"}, streamToken(t, src, ","))
		assert.Equal(t, tokenResult{1, true, "b"}, streamToken(t, src, ","))
		assert.Equal(t, tokenResult{0, true, ""}, streamToken(t, src, ","))
		assert.Equal(t, tokenResult{1, false, "c"}, streamToken(t, src, ","))
	})
}

func TestStreamUntilTokenStraddle(t *testing.T) {
	src := newChunkSource("12345TOKEN345678", 8)
	assert.Equal(t, tokenResult{5, true, "12345"}, streamToken(t, src, "TOKEN"))
	assert.Equal(t, tokenResult{6, false, "345678"}, streamToken(t, src, "TOKEN"))
	assert.Equal(t, tokenResult{0, false, ""}, streamToken(t, src, "TOKEN"))

	// `TOKE` 是假阳性 需要在找到真正的 token 之前作为数据写出
	src = newChunkSource("12345TOKE23456781TOKEN78", 8)
	assert.Equal(t, tokenResult{17, true, "12345TOKE23456781"}, streamToken(t, src, "TOKEN"))
	assert.Equal(t, "78", src.rest())
}

func TestStreamUntilTokenLargeToken(t *testing.T) {
	src := newChunkSource("IAMALARGETOKEN7812345678", 8)
	assert.Equal(t, tokenResult{0, true, ""}, streamToken(t, src, "IAMALARGETOKEN"))
	assert.Equal(t, tokenResult{10, false, "7812345678"}, streamToken(t, src, "IAMALARGETOKEN"))

	src = newChunkSource("0IAMALARGERTOKEN12345678", 8)
	assert.Equal(t, tokenResult{1, true, "0"}, streamToken(t, src, "IAMALARGERTOKEN"))
	assert.Equal(t, tokenResult{8, false, "12345678"}, streamToken(t, src, "IAMALARGERTOKEN"))
}

func TestStreamUntilTokenDoubleStraddle(t *testing.T) {
	src := newChunkSource("12345IAMALARGETOKEN4567", 8)
	assert.Equal(t, tokenResult{5, true, "12345"}, streamToken(t, src, "IAMALARGETOKEN"))
	assert.Equal(t, tokenResult{4, false, "4567"}, streamToken(t, src, "IAMALARGETOKEN"))

	// token 长度远大于 chunk 需要经过多次增长才能确认
	src = newChunkSource("xxIAMALARGETOKENyy", 1)
	assert.Equal(t, tokenResult{2, true, "xx"}, streamToken(t, src, "IAMALARGETOKEN"))
	assert.Equal(t, "yy", src.rest())
}

func TestStreamUntilTokenMultiplePrefix(t *testing.T) {
	src := newChunkSource("12barbarian4567", 8)
	assert.Equal(t, tokenResult{2, true, "12"}, streamToken(t, src, "barbarian"))
	assert.Equal(t, "4567", src.rest())

	src = newChunkSource("12barbarbarian7812", 8)
	assert.Equal(t, tokenResult{5, true, "12bar"}, streamToken(t, src, "barbarian"))
	assert.Equal(t, "7812", src.rest())
}

func TestStreamUntilTokenHeldBack(t *testing.T) {
	t.Run("FlushAtEOF", func(t *testing.T) {
		src := newChunkSource("12TO")
		assert.Equal(t, tokenResult{4, false, "12TO"}, streamToken(t, src, "TOKEN"))
	})

	t.Run("FlushGrownAtEOF", func(t *testing.T) {
		src := newChunkSource("12TOKE", 3)
		assert.Equal(t, tokenResult{6, false, "12TOKE"}, streamToken(t, src, "TOKEN"))
	})

	t.Run("DeadPrefix", func(t *testing.T) {
		// `abab` 同时匹配前缀 `abab` 和 `ab` 下一个 chunk `a` 只能延续较短的前缀
		// 此时较长前缀的开头 `ab` 已被证实为数据
		src := newChunkSource("abababx!", 4, 1, 2)
		assert.Equal(t, tokenResult{2, true, "ab"}, streamToken(t, src, "ababx"))
		assert.Equal(t, "!", src.rest())
	})

	t.Run("FalsePositiveChain", func(t *testing.T) {
		src := newChunkSource("aaaaaaab", 2)
		assert.Equal(t, tokenResult{4, true, "aaaa"}, streamToken(t, src, "aaab"))
	})
}

func TestStreamUntilTokenInterrupted(t *testing.T) {
	src := newChunkSource("12345TOKEN78", 4)
	src.errs = []error{ErrInterrupted, nil, ErrInterrupted, ErrInterrupted, nil}
	assert.Equal(t, tokenResult{5, true, "12345"}, streamToken(t, src, "TOKEN"))
	assert.Equal(t, "78", src.rest())
}

func TestStreamUntilTokenFatal(t *testing.T) {
	t.Run("Source", func(t *testing.T) {
		fatal := errors.New("connection reset")
		src := newChunkSource("abcdefTOKEN", 3)
		src.errs = []error{nil, nil, fatal}

		var out bytes.Buffer
		n, found, err := StreamUntilToken(src, []byte("TOKEN"), &out)
		assert.Equal(t, fatal, err)
		assert.False(t, found)
		assert.Equal(t, 6, n)
		assert.Equal(t, "abcdef", out.String())
	})

	t.Run("Sink", func(t *testing.T) {
		fatal := errors.New("disk full")
		src := newChunkSource("abcdefTOKEN", 3)
		w := &failWriter{n: 4, err: fatal}

		n, found, err := StreamUntilToken(src, []byte("TOKEN"), w)
		assert.Equal(t, fatal, err)
		assert.False(t, found)
		assert.Equal(t, 4, n)
		assert.Equal(t, "abcd", string(w.buf))
	})

	t.Run("WouldBlock", func(t *testing.T) {
		src := newChunkSource("abc")
		src.closed = false
		_, _, err := StreamUntilToken(src, []byte("TOKEN"), io.Discard)
		assert.Equal(t, ErrWouldBlock, err)
	})
}

func TestTokenScanDone(t *testing.T) {
	ts, err := NewTokenScan([]byte("x"))
	assert.NoError(t, err)

	src := newChunkSource("axb")
	assert.NoError(t, ts.Run(src, io.Discard))
	assert.True(t, ts.Done())
	assert.True(t, ts.Found())
	assert.Equal(t, ErrScanDone, ts.Run(src, io.Discard))

	ts.Reset()
	assert.NoError(t, ts.Run(src, io.Discard))
	assert.False(t, ts.Found())
	assert.Equal(t, 1, ts.Streamed())
}

// chunkPlans 返回一组不同的分块方式
func chunkPlans(total int) [][]int {
	var plans [][]int
	for size := 1; size <= total+1; size++ {
		plans = append(plans, []int{size})
	}
	plans = append(plans,
		[]int{1, 2},
		[]int{2, 1, 3},
		[]int{3, 5, 1},
		[]int{7, 1, 1, 2},
	)
	return plans
}

func TestStreamUntilTokenChunkInvariance(t *testing.T) {
	tests := []struct {
		input string
		token string
	}{
		{input: "12345TOKE23456781TOKEN78", token: "TOKEN"},
		{input: "12barbarbarian7812", token: "barbarian"},
		{input: "bananas for nana", token: "nan"},
		{input: "aaaaaaaaab", token: "aaab"},
		{input: "abababababx", token: "ababx"},
		{input: "abcabcabdabcabcabcabd", token: "abcabcabd"},
		{input: "no delimiter at all", token: "XYZ"},
		{input: "ends with partial XY", token: "XYZ"},
		{input: "\r\n\r\r\n\r\n\r\nbody", token: "\r\n\r\n"},
		{input: "aaaa", token: "aaaaa"},
		{input: "TOKEN", token: "TOKEN"},
	}

	for _, tt := range tests {
		want := tokenResult{n: len(tt.input), out: tt.input}
		if i := bytes.Index([]byte(tt.input), []byte(tt.token)); i >= 0 {
			want = tokenResult{n: i, found: true, out: tt.input[:i]}
		}

		for _, plan := range chunkPlans(len(tt.input)) {
			t.Run(fmt.Sprintf("%s/%v", tt.token, plan), func(t *testing.T) {
				src := newChunkSource(tt.input, plan...)
				assert.Equal(t, want, streamToken(t, src, tt.token))
				if want.found {
					assert.Equal(t, tt.input[want.n+len(tt.token):], src.rest())
				}
			})
		}
	}
}

func TestStreamUntilTokenReconstruct(t *testing.T) {
	input := "GET / HTTP/1.1\r\nHost: a\r\n\r\nPOST / HTTP/1.1\r\n\r\n\r\n\r\ntail\r\n\r"
	token := "\r\n\r\n"

	for _, plan := range chunkPlans(len(input)) {
		src := newChunkSource(input, plan...)

		var rebuilt bytes.Buffer
		for {
			r := streamToken(t, src, token)
			rebuilt.WriteString(r.out)
			if !r.found {
				break
			}
			rebuilt.WriteString(token)
		}
		assert.Equal(t, input, rebuilt.String(), "plan %v", plan)
	}
}

func BenchmarkStreamUntilToken(b *testing.B) {
	input := bytes.Repeat([]byte("0123456789abcdef"), 4096)
	input = append(input, "--boundary--"...)

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		src := &chunkSource{data: input, sizes: []int{4096}, closed: true}
		_, _, _ = StreamUntilToken(src, []byte("--boundary--"), io.Discard)
	}
}
