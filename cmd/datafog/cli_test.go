package datafog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datafog/datafog-go/internal/audit"
	"github.com/datafog/datafog-go/internal/cache"
	"github.com/datafog/datafog-go/internal/config"
	"github.com/datafog/datafog-go/internal/entities"
	"github.com/datafog/datafog-go/internal/extract"
	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/redaction"
)

const contactDoc = "Email me at john@example.com or call 555-1234."

const contactDetections = `[
  {"category": "email", "value": "john@example.com", "start": 12, "end": 28},
  {"category": "phone", "value": "555-1234", "start": 37, "end": 45}
]`

// resetFlags restores every flag to its default so commands can be executed
// repeatedly in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setup isolates a test in a temp working directory with no config or keys.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CI", "1")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "DATAFOG_LLM_BACKEND", "DATAFOG_LLM_MODEL", "DATAFOG_LLM_ENDPOINT", "DATAFOG_ENTITY_ENDPOINT", "DATAFOG_ENTITY_MODEL", "SENTRY_DSN", "NO_COLOR"} {
		t.Setenv(k, "")
	}
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
	return name
}

// fakeLLM serves an OpenAI-compatible chat completions endpoint that always
// answers with reply.
func fakeLLM(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestRedact_WithDetectionsFile(t *testing.T) {
	setup(t)
	writeFile(t, "contact.txt", contactDoc)
	writeFile(t, "pii.json", contactDetections)

	out, errOut, err := run(t, "", "redact", "contact.txt", "--detections", "pii.json")
	require.NoError(t, err)
	assert.Equal(t, "Email me at [EMAIL] or call [PHONE].\n", out)
	assert.Contains(t, errOut, "contact.txt")

	records, err := audit.New(".").LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Replacements)
	assert.False(t, records[0].Extracted)
}

func TestRedact_JSONAndOutFile(t *testing.T) {
	setup(t)
	writeFile(t, "pii.json", `{"private_data": `+contactDetections+`}`)

	out, _, err := run(t, contactDoc, "redact", "-", "--detections", "pii.json", "--json", "--out", "redacted.txt", "--no-audit")
	require.NoError(t, err)

	var got redactOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "<stdin>", got.Source)
	assert.Equal(t, "Email me at [EMAIL] or call [PHONE].", got.Text)
	assert.Equal(t, 2, got.Replacements)
	assert.Equal(t, map[string]int{"email": 1, "phone": 1}, got.Categories)
	assert.Len(t, got.Fingerprint, 64)
	assert.Empty(t, got.Detections)

	b, err := os.ReadFile("redacted.txt")
	require.NoError(t, err)
	assert.Equal(t, got.Text, string(b))

	_, err = os.Stat(audit.DefaultPath("."))
	assert.True(t, os.IsNotExist(err))
}

func TestRedact_Errors(t *testing.T) {
	setup(t)
	writeFile(t, "contact.txt", contactDoc)
	writeFile(t, "empty.json", `[]`)
	writeFile(t, "bad.json", `[{"category": "email"}]`)
	writeFile(t, "oob.json", `[{"category": "email", "value": "john@example.com", "start": 40, "end": 56}]`)

	_, _, err := run(t, "", "redact", "contact.txt")
	assert.ErrorIs(t, err, errUsage)
	assert.Equal(t, exitError, exitCode(err))

	_, _, err = run(t, "", "redact", "contact.txt", "--detections", "empty.json")
	assert.ErrorIs(t, err, redaction.ErrEmptyDetectionSet)
	assert.Equal(t, exitInvalidDetection, exitCode(err))

	_, _, err = run(t, "", "redact", "contact.txt", "--detections", "bad.json")
	assert.ErrorIs(t, err, redaction.ErrInvalidDetection)

	_, _, err = run(t, "", "redact", "contact.txt", "--detections", "oob.json")
	assert.ErrorIs(t, err, redaction.ErrOffsetOutOfRange)
	assert.Equal(t, exitSpan, exitCode(err))

	_, _, err = run(t, "", "redact", "contact.txt", "--detections", "empty.json", "--json", "--markdown")
	assert.ErrorIs(t, err, errUsage)
}

func TestRedact_ExtractMissingKey(t *testing.T) {
	setup(t)
	writeFile(t, "contact.txt", contactDoc)
	_, _, err := run(t, "", "redact", "contact.txt", "--extract")
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestRedact_ExtractUsesCache(t *testing.T) {
	setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv, calls := fakeLLM(t, `{"private_data": `+contactDetections+`}`)
	writeFile(t, "contact.txt", contactDoc)

	args := []string{"redact", "contact.txt", "--extract", "--backend", "openai", "--endpoint", srv.URL}
	out, _, err := run(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, "Email me at [EMAIL] or call [PHONE].\n", out)
	assert.EqualValues(t, 1, calls.Load())

	out, _, err = run(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, "Email me at [EMAIL] or call [PHONE].\n", out)
	assert.EqualValues(t, 1, calls.Load(), "second run should be served from the cache")

	_, _, err = run(t, "", append(args, "--no-cache")...)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	records, err := audit.New(".").LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[0].Extracted)
	assert.Equal(t, llm.DefaultModel(llm.BackendOpenAI), records[0].Model)
}

func TestExtract_NoCacheWritesNothing(t *testing.T) {
	setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv, _ := fakeLLM(t, contactDetections)

	_, _, err := run(t, contactDoc, "extract", "--no-cache", "--backend", "openai", "--endpoint", srv.URL)
	require.NoError(t, err)
	_, err = os.Stat(cache.DefaultPath("."))
	assert.True(t, os.IsNotExist(err))

	_, _, err = run(t, contactDoc, "extract", "--backend", "openai", "--endpoint", srv.URL)
	require.NoError(t, err)
	b, err := os.ReadFile(cache.DefaultPath("."))
	require.NoError(t, err)
	assert.Contains(t, string(b), "john@example.com")
}

func TestExtract_NoFindings(t *testing.T) {
	setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv, _ := fakeLLM(t, `{"private_data": []}`)

	_, errOut, err := run(t, "nothing to see", "extract", "--backend", "openai", "--endpoint", srv.URL)
	assert.ErrorIs(t, err, extract.ErrNoFindings)
	assert.Equal(t, exitNoFindings, exitCode(err))
	assert.Contains(t, errOut, "No PII found")
}

func TestExtract_JSON(t *testing.T) {
	setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv, _ := fakeLLM(t, "```json\n"+contactDetections+"\n```")

	out, _, err := run(t, contactDoc, "extract", "--json", "--no-cache", "--backend", "openai", "--endpoint", srv.URL)
	require.NoError(t, err)
	var got struct {
		PrivateData []map[string]any `json:"private_data"`
		Fingerprint string           `json:"fingerprint"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.PrivateData, 2)
	assert.Len(t, got.Fingerprint, 64)
}

func TestExtract_MalformedReply(t *testing.T) {
	setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv, _ := fakeLLM(t, "I could not find anything useful, sorry.")

	_, _, err := run(t, contactDoc, "extract", "--no-cache", "--backend", "openai", "--endpoint", srv.URL)
	require.Error(t, err)
	assert.Equal(t, exitLLM, exitCode(err))
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	setup(t)
	writeFile(t, "a.json", contactDetections)
	writeFile(t, "b.json", `[
  {"category": "phone", "value": "555-1234", "start": 37, "end": 45},
  {"category": "email", "value": "john@example.com", "start": 12, "end": 28}
]`)

	a, _, err := run(t, "", "fingerprint", "--detections", "a.json")
	require.NoError(t, err)
	b, _, err := run(t, "", "fingerprint", "--detections", "b.json")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, strings.TrimSpace(a), 64)

	out, _, err := run(t, "", "fingerprint", "--detections", "a.json", "--json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, strings.TrimSpace(a), got["fingerprint"])
	assert.EqualValues(t, 2, got["detections"])
	assert.Equal(t, false, got["fallback"])

	_, _, err = run(t, "", "fingerprint")
	assert.ErrorIs(t, err, errUsage)
}

func TestClassifyFile(t *testing.T) {
	setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv, _ := fakeLLM(t, `{"file_type": "CPA", "confidence": 0.9, "keywords": ["tax"], "summary": "A tax return."}`)
	writeFile(t, "return.txt", "Form 1040 for 2023")

	out, _, err := run(t, "", "classify", "file", "return.txt", "--json", "--backend", "openai", "--endpoint", srv.URL)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "CPA", got["file_type"])
	assert.Equal(t, "return.txt", got["file_name"])
}

func TestClassifyFile_InvalidType(t *testing.T) {
	setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv, _ := fakeLLM(t, `{"file_type": "Recipe", "confidence": 0.9, "keywords": [], "summary": "Soup."}`)
	writeFile(t, "soup.txt", "Boil water")

	_, _, err := run(t, "", "classify", "file", "soup.txt", "--backend", "openai", "--endpoint", srv.URL)
	require.Error(t, err)
	assert.Equal(t, exitLLM, exitCode(err))
}

func TestHistory(t *testing.T) {
	setup(t)
	writeFile(t, "contact.txt", contactDoc)
	writeFile(t, "pii.json", contactDetections)

	out, _, err := run(t, "", "history", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, _, err = run(t, "", "redact", "contact.txt", "--detections", "pii.json")
	require.NoError(t, err)

	out, _, err = run(t, "", "history", "--json")
	require.NoError(t, err)
	var records []audit.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "contact.txt", records[0].Source)
	assert.NotContains(t, out, "john@example.com")

	_, _, err = run(t, "", "history", "delete", "5")
	assert.ErrorIs(t, err, audit.ErrInvalidIndex)

	_, _, err = run(t, "", "history", "delete", "x")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = run(t, "", "history", "delete", "0")
	require.NoError(t, err)
	records, err = audit.New(".").LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestConfigInitAndShow(t *testing.T) {
	setup(t)
	out, _, err := run(t, "", "config", "init", "--llm", "openai")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote .datafog.yml")

	fc, err := config.LoadFile(".datafog.yml")
	require.NoError(t, err)
	require.NotNil(t, fc.Backend)
	assert.Equal(t, "openai", *fc.Backend)

	gi, err := os.ReadFile(".gitignore")
	require.NoError(t, err)
	assert.Contains(t, string(gi), ".env")

	_, _, err = run(t, "", "config", "init")
	assert.Error(t, err, "existing file without --force")

	t.Setenv("OPENAI_API_KEY", "sk-secret-1234")
	out, _, err = run(t, "", "config", "show", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")
	var shown shownConfig
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "openai", shown.Backend)
	assert.Equal(t, "********1234", shown.APIKey)
}

func TestConfig_InvalidLocal(t *testing.T) {
	setup(t)
	writeFile(t, ".datafog.yml", "timeout: forever\n")
	_, _, err := run(t, "", "config", "show")
	assert.ErrorIs(t, err, config.ErrInvalidTimeout)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestEntitiesTypes(t *testing.T) {
	setup(t)
	out, _, err := run(t, "", "entities", "types", "--json", "--add", "BADGE=Badge number", "--remove", "ORG")
	require.NoError(t, err)
	var ts []entities.EntityType
	require.NoError(t, json.Unmarshal([]byte(out), &ts))
	names := make([]string, 0, len(ts))
	for _, et := range ts {
		names = append(names, et.Name)
	}
	assert.Contains(t, names, "BADGE")
	assert.NotContains(t, names, "ORG")

	_, _, err = run(t, "", "entities", "types", "--add", "nolabel")
	assert.ErrorIs(t, err, errUsage)
}

func TestEntitiesDetect_Redact(t *testing.T) {
	setup(t)
	srv, _ := fakeLLM(t, `{"entities": [{"text": "Alice", "start": 0, "end": 5, "type": "PERSON"}]}`)
	t.Setenv("DATAFOG_ENTITY_ENDPOINT", srv.URL)

	out, _, err := run(t, "Alice went home.", "entities", "detect", "--redact")
	require.NoError(t, err)
	assert.Equal(t, "[PERSON] went home.\n", out)
}

func TestCompletionAndVersion(t *testing.T) {
	setup(t)
	out, _, err := run(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "datafog")

	_, _, err = run(t, "", "completion", "tcsh")
	assert.ErrorIs(t, err, errUsage)

	out, _, err = run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "datafog "+version+"\n", out)
}

func TestReplaceEntityTypes(t *testing.T) {
	doc := []byte("# Title\n" + entityTypesBegin + "\nstale\n" + entityTypesEnd + "\nfooter\n")
	out, err := replaceEntityTypes(doc, []entities.EntityType{{Name: "EMAIL", Label: "Email address"}})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "| `EMAIL` | Email address |")
	assert.NotContains(t, s, "stale")
	assert.True(t, strings.HasSuffix(s, entityTypesEnd+"\nfooter\n"))

	_, err = replaceEntityTypes([]byte("no markers"), nil)
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{extract.ErrNoFindings, exitNoFindings},
		{fmt.Errorf("x: %w", redaction.ErrInvalidDetection), exitInvalidDetection},
		{redaction.ErrEmptyDetectionSet, exitInvalidDetection},
		{redaction.ErrOverlappingSpans, exitSpan},
		{redaction.ErrSpanMismatch, exitSpan},
		{fmt.Errorf("%w: boom", llm.ErrRequestFailed), exitLLM},
		{entities.ErrUnexpectedResponse, exitLLM},
		{config.ErrUnknownBackend, exitConfig},
		{errors.New("other"), exitError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, exitCode(c.err), "%v", c.err)
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "***", maskKey("abc"))
	assert.Equal(t, "********wxyz", maskKey("sk-abcdefwxyz"))
}

func TestRedact_ReviewNeedsTerminal(t *testing.T) {
	setup(t)
	writeFile(t, "contact.txt", contactDoc)
	writeFile(t, "pii.json", contactDetections)
	_, _, err := run(t, "", "redact", "contact.txt", "--detections", "pii.json", "--review")
	assert.ErrorIs(t, err, errUsage)
}
