// Copyright (c) 2022,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, data []byte) []byte {
	t.Helper()
	scratch := make([]byte, len(data)+rbspHeadroom)
	n, err := ExtractRBSP(data, scratch)
	require.NoError(t, err)
	return scratch[:n]
}

func TestExtractRBSP(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{"empty", nil, nil},
		{"no escapes", []byte{0x42, 0x01, 0x0c}, []byte{0x42, 0x01, 0x0c}},
		{"single escape", []byte{0x00, 0x00, 0x03, 0x01}, []byte{0x00, 0x00, 0x01}},
		{"escape at end", []byte{0x7f, 0x00, 0x00, 0x03}, []byte{0x7f, 0x00, 0x00}},
		{
			"back to back",
			[]byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x03, 0x02},
			[]byte{0x00, 0x00, 0x00, 0x00, 0x02},
		},
		{
			"escape across word boundary",
			[]byte{1, 2, 3, 4, 5, 6, 7, 0x00, 0x00, 0x03, 0x01},
			[]byte{1, 2, 3, 4, 5, 6, 7, 0x00, 0x00, 0x01},
		},
		{
			"zero pair split by word boundary",
			[]byte{1, 2, 3, 4, 5, 6, 7, 0x00, 0x00, 0x03, 0x01, 0x22},
			[]byte{1, 2, 3, 4, 5, 6, 7, 0x00, 0x00, 0x01, 0x22},
		},
		{
			"no removal without two zeros",
			[]byte{0x40, 0x00, 0x03, 0x00, 0x03},
			[]byte{0x40, 0x00, 0x03, 0x00, 0x03},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extract(t, tt.data)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractRBSP_CarryAcrossWords(t *testing.T) {
	// Two zero bytes at the tail of one 8-byte word, the 0x03 at the head
	// of the next.
	data := []byte{1, 2, 3, 4, 5, 6, 0x00, 0x00, 0x03, 0x00, 0x7f}
	want := []byte{1, 2, 3, 4, 5, 6, 0x00, 0x00, 0x00, 0x7f}
	assert.Equal(t, want, extract(t, data))

	// Zero pair straddling the boundary itself.
	data = []byte{1, 2, 3, 4, 5, 6, 7, 0x00, 0x00, 0x03, 0x02}
	want = []byte{1, 2, 3, 4, 5, 6, 7, 0x00, 0x00, 0x02}
	assert.Equal(t, want, extract(t, data))
}

func TestExtractRBSP_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for size := 0; size <= 1024; size++ {
		rbsp := make([]byte, size)
		for i := range rbsp {
			// Bias towards small values so escape sequences are frequent.
			if rnd.Intn(2) == 0 {
				rbsp[i] = byte(rnd.Intn(4))
			} else {
				rbsp[i] = byte(rnd.Intn(256))
			}
		}
		escaped := escapeRBSP(rbsp)
		scratch := make([]byte, len(escaped)+rbspHeadroom)
		n, err := ExtractRBSP(escaped, scratch)
		require.NoError(t, err)
		require.Equal(t, rbsp, scratch[:n], "size %d", size)
	}
}

func TestExtractRBSP_Capacity(t *testing.T) {
	data := make([]byte, 16)
	_, err := ExtractRBSP(data, make([]byte, 16))
	assert.True(t, errors.Is(err, ErrCapacity))

	_, err = ExtractRBSP(data, make([]byte, 16+rbspHeadroom))
	assert.NoError(t, err)
}
