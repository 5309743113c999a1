package classify

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/datafog/datafog-go/internal/files"
	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/llmjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const medicalReply = `{"file_name": "report.txt", "file_type": "Medical_Report", "confidence": 0.92, "keywords": ["patient", "diagnosis"], "summary": "A medical report."}`

type stubCompleter struct {
	mu    sync.Mutex
	reply func(msgs []llm.Message) (string, error)
	seen  [][]llm.Message
}

func (s *stubCompleter) Complete(_ context.Context, msgs ...llm.Message) (string, error) {
	s.mu.Lock()
	s.seen = append(s.seen, msgs)
	s.mu.Unlock()
	return s.reply(msgs)
}

func fixed(reply string) *stubCompleter {
	return &stubCompleter{reply: func([]llm.Message) (string, error) { return reply, nil }}
}

func TestIsValidFileType(t *testing.T) {
	for _, ft := range FileTypes() {
		assert.True(t, IsValidFileType(string(ft)), ft)
	}
	assert.False(t, IsValidFileType("medical_report"))
	assert.False(t, IsValidFileType(""))
}

func TestFileClassification_Validate(t *testing.T) {
	valid := FileClassification{FileName: "a.txt", FileType: CPA, Confidence: 1, Keywords: []string{"tax"}, Summary: "tax"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*FileClassification)
	}{
		{"blank name", func(c *FileClassification) { c.FileName = "  " }},
		{"unknown type", func(c *FileClassification) { c.FileType = "Invoice" }},
		{"confidence high", func(c *FileClassification) { c.Confidence = 1.01 }},
		{"confidence negative", func(c *FileClassification) { c.Confidence = -0.1 }},
		{"no keywords", func(c *FileClassification) { c.Keywords = nil }},
		{"blank summary", func(c *FileClassification) { c.Summary = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidClassification)
		})
	}
}

func TestClassifyFile(t *testing.T) {
	stub := fixed("```json\n" + medicalReply + "\n```")
	c := New(stub, WithLogger(zaptest.NewLogger(t)))
	fc, err := c.ClassifyFile(context.Background(), "This is a test medical report.", "report.txt")
	require.NoError(t, err)
	assert.Equal(t, MedicalReport, fc.FileType)
	assert.InDelta(t, 0.92, fc.Confidence, 1e-9)

	require.Len(t, stub.seen, 1)
	assert.Contains(t, stub.seen[0][0].Text, "Medical_Report, Work_Admin, Work_PTO, CPA, Other")
	assert.Contains(t, stub.seen[0][1].Text, "File Name: report.txt")
}

func TestClassifyFile_InputErrors(t *testing.T) {
	c := New(fixed(medicalReply))
	_, err := c.ClassifyFile(context.Background(), " ", "a.txt")
	assert.ErrorIs(t, err, ErrEmptyContent)
	_, err = c.ClassifyFile(context.Background(), "text", "")
	assert.ErrorIs(t, err, ErrEmptyFileName)
}

func TestClassifyFile_BadReplies(t *testing.T) {
	_, err := New(fixed("not json")).ClassifyFile(context.Background(), "x", "a.txt")
	assert.ErrorIs(t, err, llmjson.ErrMalformedResponse)

	bad := strings.Replace(medicalReply, "Medical_Report", "Invoice", 1)
	_, err = New(fixed(bad)).ClassifyFile(context.Background(), "x", "a.txt")
	assert.ErrorIs(t, err, ErrInvalidClassification)

	failing := &stubCompleter{reply: func([]llm.Message) (string, error) { return "", llm.ErrRequestFailed }}
	_, err = New(failing).ClassifyFile(context.Background(), "x", "a.txt")
	assert.ErrorIs(t, err, llm.ErrRequestFailed)
}

func TestClassifyFile_FillsMissingName(t *testing.T) {
	reply := `{"file_type": "Work_PTO", "confidence": 0.5, "keywords": ["vacation"], "summary": "PTO form."}`
	fc, err := New(fixed(reply)).ClassifyFile(context.Background(), "PTO request", "pto.txt")
	require.NoError(t, err)
	assert.Equal(t, "pto.txt", fc.FileName)
}

func TestClassifyImage(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))

	text := fixed(medicalReply)
	vision := fixed(medicalReply)
	c := New(text, WithVision(vision))
	fc, err := c.ClassifyImage(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, MedicalReport, fc.FileType)
	assert.Empty(t, text.seen)
	require.Len(t, vision.seen, 1)
	assert.True(t, strings.HasPrefix(vision.seen[0][1].ImageDataURL, "data:image/png;base64,"))

	_, err = c.ClassifyImage(context.Background(), filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	empty := filepath.Join(dir, "empty.jpg")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = c.ClassifyImage(context.Background(), empty)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestDataURL_FallbackMediaType(t *testing.T) {
	assert.True(t, strings.HasPrefix(DataURL([]byte("plain text")), "data:image/jpeg;base64,"))
}

func TestClassifyDir(t *testing.T) {
	root := t.TempDir()
	for name, body := range map[string]string{
		"b_medical.txt": "patient diagnosis",
		"a_fail.txt":    "trigger failure",
		"c_tax.md":      "CPA tax return",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	}
	boom := errors.New("boom")
	stub := &stubCompleter{reply: func(msgs []llm.Message) (string, error) {
		if strings.Contains(msgs[1].Text, "trigger failure") {
			return "", boom
		}
		return medicalReply, nil
	}}
	results, err := New(stub).ClassifyDir(context.Background(), files.Options{Root: root, DefaultExcludes: true}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a_fail.txt", results[0].Path)
	assert.ErrorIs(t, results[0].Err, boom)
	assert.Equal(t, "b_medical.txt", results[1].Path)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, MedicalReport, results[2].Classification.FileType)
}
