package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/config"
	"github.com/jonathan/medcontent/internal/persuasion"
	"github.com/jonathan/medcontent/internal/server"
)

const (
	violatingText = "국내 최고의 의료진이 100% 완치를 약속합니다."
	fixedText     = "신뢰할 수 있는 의료진이 개인차가 있을 수 있는 결과를 약속합니다."
)

// execute runs the root command in-process and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	scanJSON, scanStrict, scanWatch = false, false, false
	fixJSON, fixWrite, scoreJSON = false, false, false
	tokenOwner, configPath = "", ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadInput(t *testing.T) {
	path := writeTemp(t, "post.txt", "from file")

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"stdin when no args", nil, "from stdin", false},
		{"stdin for dash", []string{"-"}, "from stdin", false},
		{"file", []string{path}, "from file", false},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.txt")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInput(tt.args, strings.NewReader("from stdin"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanCommand_JSON(t *testing.T) {
	stdout, _, err := execute(t, violatingText, "scan", "--json")
	require.NoError(t, err)

	var report compliance.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.False(t, report.IsCompliant)
	assert.Len(t, report.Violations, 2)
	assert.Less(t, report.Score, 100)
}

func TestScanCommand_Box(t *testing.T) {
	stdout, _, err := execute(t, violatingText, "scan")
	require.NoError(t, err)

	assert.Contains(t, stdout, "MEDICAL ADVERTISING CHECK")
	assert.Contains(t, stdout, "NOT COMPLIANT")
	assert.Contains(t, stdout, "Violations:")
}

func TestScanCommand_HTMLInput(t *testing.T) {
	html := "<html><body><p>" + violatingText + "</p><script>var x = 1;</script></body></html>"
	path := writeTemp(t, "post.html", html)

	stdout, _, err := execute(t, "", "scan", "--json", path)
	require.NoError(t, err)

	var report compliance.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Violations, 2)
	assert.Equal(t, "국내 최고의", report.Violations[0].Text)
}

func TestScanCommand_Strict(t *testing.T) {
	_, _, err := execute(t, violatingText, "scan", "--strict")
	assert.ErrorIs(t, err, errNotCompliant)

	_, _, err = execute(t, "정기 검진은 건강 관리에 도움이 됩니다.", "scan", "--strict")
	assert.NoError(t, err)
}

func TestScanCommand_WatchNeedsFile(t *testing.T) {
	_, _, err := execute(t, violatingText, "scan", "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a file")
}

func TestFixCommand_Stdout(t *testing.T) {
	stdout, stderr, err := execute(t, violatingText, "fix")
	require.NoError(t, err)

	assert.Equal(t, fixedText, stdout)
	assert.Contains(t, stderr, "AUTO-FIX CHANGES")
	assert.Contains(t, stderr, "Applied 2 changes")
}

func TestFixCommand_WriteKeepsFormatting(t *testing.T) {
	content := "# 안내\n\n" + violatingText + "\n\n- 상담 문의\n"
	path := writeTemp(t, "post.md", content)

	stdout, _, err := execute(t, "", "fix", "--write", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# 안내\n\n"+fixedText+"\n\n- 상담 문의\n", string(data))
}

func TestFixCommand_WriteNeedsFile(t *testing.T) {
	_, _, err := execute(t, violatingText, "fix", "--write")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a file")
}

func TestFixCommand_JSON(t *testing.T) {
	stdout, _, err := execute(t, violatingText, "fix", "--json")
	require.NoError(t, err)

	var out struct {
		Text    string                    `json:"text"`
		Changes []compliance.ChangeRecord `json:"changes"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, fixedText, out.Text)
	assert.Len(t, out.Changes, 2)
}

func TestFixCommand_NothingToFix(t *testing.T) {
	text := "정기 검진은 건강 관리에 도움이 됩니다."

	stdout, stderr, err := execute(t, text, "fix")
	require.NoError(t, err)
	assert.Equal(t, text, stdout)
	assert.Contains(t, stderr, "NOTHING TO FIX")
}

func TestScoreCommand(t *testing.T) {
	text := "피부과 전문의와 의학 박사가 진료합니다."

	stdout, _, err := execute(t, text, "score", "--json")
	require.NoError(t, err)

	var b persuasion.Breakdown
	require.NoError(t, json.Unmarshal([]byte(stdout), &b))
	assert.Equal(t, persuasion.NewScorer().Score(text), b)

	stdout, _, err = execute(t, text, "score")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PERSUASION SCORE")
	assert.Contains(t, stdout, "Authority")
}

func TestMigrateCommand_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	t.Setenv("DATABASE_DRIVER", config.DriverSQLite)
	t.Setenv("DATABASE_URL", "file:"+dbPath)

	stdout, _, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Schema applied (sqlite)")

	// Applying twice is harmless.
	_, _, err = execute(t, "", "migrate")
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestTokenCommand(t *testing.T) {
	const secret = "test-secret-for-cli-tokens-0123456789"
	t.Setenv("JWT_SECRET", secret)
	owner := uuid.New()

	stdout, _, err := execute(t, "", "token", "--owner", owner.String())
	require.NoError(t, err)
	assert.Contains(t, stdout, "owner: "+owner.String())

	var token string
	for _, line := range strings.Split(stdout, "\n") {
		if after, ok := strings.CutPrefix(line, "token: "); ok {
			token = after
		}
	}
	require.NotEmpty(t, token)

	claims, err := server.NewJWTService(&config.JWTConfig{Secret: secret, ExpirationHours: 1}).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, owner, claims.GetOwnerID())
}

func TestTokenCommand_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, _, err := execute(t, "", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "test-secret-for-cli-tokens-0123456789")
	_, _, err = execute(t, "", "token", "--owner", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --owner")
}

func TestWatchFile(t *testing.T) {
	path := writeTemp(t, "post.txt", "first")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() {
			data, _ := os.ReadFile(path)
			mu.Lock()
			seen = append(seen, string(data))
			mu.Unlock()
		})
	}()

	calls := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}

	require.Eventually(t, func() bool { return len(calls()) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	require.Eventually(t, func() bool {
		c := calls()
		return len(c) >= 2 && c[len(c)-1] == "second"
	}, 5*time.Second, 20*time.Millisecond)

	// Other files in the directory are ignored.
	before := len(calls())
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644))
	time.Sleep(3 * watchDebounce)
	assert.Len(t, calls(), before)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchFile did not return after cancel")
	}
}
