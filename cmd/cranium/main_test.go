package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cranium/internal/types"
)

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}

const profileJSON = `{
  "personal": {"name": "Ada Lovelace", "email": "ada@example.com", "summary": "Engineer"},
  "experience": [
    {"id": "exp-1", "organization": "Acme", "job_title": "Engineer", "start_date": "2018-01", "end_date": "2020-01"},
    {"id": "exp-2", "organization": "Globex", "job_title": "Lead", "start_date": "2020-02", "end_date": "present"}
  ],
  "skills": [{"id": "skill-go", "name": "Go"}]
}`

// isolate clears the environment the commands read so a developer .env
// cannot leak into a run.
func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{"DATABASE_URL", "REDIS_URL", "GEMINI_API_KEY", "TARGET_ROLE", "JWT_SECRET", "JWT_ISSUER", "JWT_EXPIRATION_HOURS", "PORT"} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// resetFlags returns every flag of cmd and its children to its default so
// package-level flag variables do not carry over between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI in-process and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateProfileCommand(t *testing.T) {
	isolate(t)

	t.Run("valid", func(t *testing.T) {
		out, err := run(t, "validate-profile", "--profile", writeFile(t, "profile.json", profileJSON))
		require.NoError(t, err)
		// 3 personal fields, 2 experience entries, 1 skill
		assert.Contains(t, out, "Validation passed: 6 items")
	})

	t.Run("schema violation", func(t *testing.T) {
		_, err := run(t, "validate-profile", "--profile", writeFile(t, "bad.json", `{"personal": {}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profile does not match schema")
	})

	t.Run("duplicate ids", func(t *testing.T) {
		dup := `{"personal": {"name": "A"}, "skills": [{"id": "s", "name": "Go"}, {"id": "s", "name": "Rust"}]}`
		_, err := run(t, "validate-profile", "--profile", writeFile(t, "dup.json", dup))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate item id")
	})

	t.Run("missing flag", func(t *testing.T) {
		_, err := run(t, "validate-profile")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})
}

func TestExportCommand(t *testing.T) {
	isolate(t)
	profile := writeFile(t, "profile.json", profileJSON)

	t.Run("chosen items", func(t *testing.T) {
		out, err := run(t, "export", "--profile", profile, "--choose", "exp-1,skill-go")
		require.NoError(t, err)

		var doc struct {
			Items    []struct{ Kind types.ItemKind } `json:"items"`
			Sections []json.RawMessage               `json:"sections"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		require.Len(t, doc.Items, 2)
		kinds := []types.ItemKind{doc.Items[0].Kind, doc.Items[1].Kind}
		assert.ElementsMatch(t, []types.ItemKind{types.KindExperience, types.KindSkill}, kinds)
		assert.Empty(t, doc.Sections)
	})

	t.Run("single container to file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "available.json")
		_, err := run(t, "export", "--profile", profile, "--choose", "exp-1", "--container", "available", "--out", dest)
		require.NoError(t, err)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		var items []json.RawMessage
		require.NoError(t, json.Unmarshal(data, &items))
		assert.Len(t, items, 5)
	})

	t.Run("unknown container", func(t *testing.T) {
		_, err := run(t, "export", "--profile", profile, "--container", "nowhere")
		assert.Error(t, err)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := run(t, "export", "--profile", profile, "--choose", "ghost")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `failed to choose "ghost"`)
	})

	t.Run("needs a profile source", func(t *testing.T) {
		_, err := run(t, "export")
		assert.Error(t, err)
	})

	t.Run("session needs redis", func(t *testing.T) {
		_, err := run(t, "export", "--profile", profile, "--session", uuid.NewString())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_URL")
	})

	t.Run("user id needs database", func(t *testing.T) {
		_, err := run(t, "export", "--user-id", uuid.NewString())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})
}

// dryRunRequest mirrors types.AdviceRequest with the payload map left raw,
// since Payload is an interface.
type dryRunRequest struct {
	ChosenItems          []types.Item               `json:"chosenItems"`
	AvailableItemContext map[string]json.RawMessage `json:"availableItemContext"`
	TargetRole           string                     `json:"targetRole"`
	Focus                types.QueueItem            `json:"focus"`
}

func TestAdviseCommand(t *testing.T) {
	isolate(t)
	profile := writeFile(t, "profile.json", profileJSON)

	t.Run("dry run prints the request", func(t *testing.T) {
		out, err := run(t, "advise", "--profile", profile, "--choose", "exp-1,exp-2", "--focus", "exp-2", "--target-role", "Staff Engineer", "--dry-run")
		require.NoError(t, err)

		var req dryRunRequest
		require.NoError(t, json.Unmarshal([]byte(out), &req))
		assert.Equal(t, "Staff Engineer", req.TargetRole)
		assert.Equal(t, "exp-2", req.Focus.ItemID)
		assert.Len(t, req.ChosenItems, 2)
		assert.Contains(t, req.AvailableItemContext, "skill-go")
	})

	t.Run("focus defaults to last chosen", func(t *testing.T) {
		out, err := run(t, "advise", "--profile", profile, "--choose", "skill-go", "--dry-run")
		require.NoError(t, err)
		var req dryRunRequest
		require.NoError(t, json.Unmarshal([]byte(out), &req))
		assert.Equal(t, "skill-go", req.Focus.ItemID)
	})

	t.Run("needs a focus", func(t *testing.T) {
		_, err := run(t, "advise", "--profile", profile, "--dry-run")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--focus or --choose")
	})

	t.Run("needs an api key", func(t *testing.T) {
		_, err := run(t, "advise", "--profile", profile, "--choose", "exp-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	})
}

func TestIssueTokenCommand(t *testing.T) {
	isolate(t)
	secret := "a-secret-of-sufficient-length"
	userID := uuid.New()

	out, err := run(t, "issue-token", "--user-id", userID.String(), "--jwt-secret", secret)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims["sub"])

	_, err = run(t, "issue-token", "--user-id", "not-a-uuid", "--jwt-secret", secret)
	assert.Error(t, err)
}

func TestResolveConfig_Precedence(t *testing.T) {
	isolate(t)
	t.Setenv("TARGET_ROLE", "from env")
	t.Setenv("PORT", "9000")
	cfgPath := writeFile(t, "config.json", `{"target_role": "from file", "port": 7000, "debounce_ms": 1200}`)

	resetFlags(rootCmd)
	require.NoError(t, serveCmd.ParseFlags([]string{"--config", cfgPath, "--port", "8181"}))

	cfg, err := resolveConfig(serveCmd)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Port, "flag wins")
	assert.Equal(t, "from env", cfg.TargetRole, "env beats file")
	assert.Equal(t, 1200, cfg.DebounceMS, "file beats defaults")
	assert.Equal(t, 3, cfg.MaxAttempts, "defaults fill the rest")
}
