package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/ocr"
)

func TestImageSourceValidate(t *testing.T) {
	tests := []struct {
		name string
		src  ImageSource
		ok   bool
	}{
		{"url", ImageSource{URL: "https://cdn.example.com/t.jpg"}, true},
		{"data", ImageSource{Data: []byte{1, 2}}, true},
		{"none", ImageSource{}, false},
		{"both", ImageSource{URL: "https://cdn.example.com/t.jpg", Data: []byte{1}}, false},
		{"path", ImageSource{Path: "/drop/t.jpg"}, true},
		{"path and data", ImageSource{Path: "/drop/t.jpg", Data: []byte{1}}, false},
		{"bad url", ImageSource{URL: "not a url"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			assert.Equal(t, 400, common.HTTPStatus(err))
		})
	}
}

func TestImageSourceRef(t *testing.T) {
	assert.Equal(t, "https://x.test/a.png", ImageSource{URL: "https://x.test/a.png"}.Ref())
	assert.Equal(t, "inline:base64", ImageSource{Data: []byte{1}}.Ref())
	assert.Equal(t, "file:///drop/t.jpg", ImageSource{Path: "/drop/t.jpg"}.Ref())
}

type fixedRecognizer string

func (f fixedRecognizer) Name() string { return "fixed" }
func (f fixedRecognizer) Recognize(context.Context, []byte) (ocr.Recognition, error) {
	return ocr.Recognition{Text: string(f), Confidence: 0.9}, nil
}

func TestOCRAdapter(t *testing.T) {
	e, err := ocr.NewExtractor(ocr.Config{}, nil, ocr.WithRecognizer(fixedRecognizer("LICENSE  DL 123")))
	require.NoError(t, err)
	a := NewOCRAdapter(e)

	res, err := a.Extract(context.Background(), ImageSource{Data: []byte("img")})
	require.NoError(t, err)
	assert.Equal(t, "LICENSE DL 123", res.Text)
	assert.Equal(t, "fixed", res.Provider)
	assert.Greater(t, res.Confidence, 0.6)

	_, err = a.Extract(context.Background(), ImageSource{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
