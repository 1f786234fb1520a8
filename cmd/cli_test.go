package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/social-accounts-cli/internal/adapters/browser/fake"
	filestore "github.com/bnema/social-accounts-cli/internal/adapters/secrets/file"
	"github.com/bnema/social-accounts-cli/internal/config"
	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"github.com/bnema/social-accounts-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cliEnv struct {
	t         *testing.T
	dir       string
	driver    *fake.Driver
	secrets   *filestore.Store
	clock     *instantClock
	generator ports.ContentGenerator
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SA_BROADCAST_PACING_DELAY", "0s")
	t.Setenv("SA_ENGAGE_LIKES_PER_MINUTE", "0")

	return &cliEnv{
		t:       t,
		dir:     dir,
		driver:  fake.NewDriver(domain.DefaultXProfile()),
		secrets: filestore.NewStore(filepath.Join(dir, "test-secrets")),
		clock:   &instantClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
}

func (e *cliEnv) execute(args ...string) (string, string, error) {
	e.t.Helper()

	root := newRootCmdWith(wireOptions{
		driverFactory: func(config.Browser, *zap.Logger) (ports.BrowserDriver, error) {
			return e.driver, nil
		},
		generatorFactory: func(config.OpenAI, int) (ports.ContentGenerator, error) {
			if e.generator == nil {
				return nil, errors.New("no generator configured")
			}
			return e.generator, nil
		},
		secretStore: e.secrets,
		clock:       e.clock,
	})
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--config-dir", e.dir}, args...))

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) profileDir(id string) string {
	return filepath.Join(e.dir, "profiles", id)
}

// addAccount registers id with stored credentials that the fake site accepts.
func (e *cliEnv) addAccount(id string, name string) {
	e.t.Helper()

	_, _, err := e.execute("account", "add", id, "--name", name)
	require.NoError(e.t, err)
	_, _, err = e.execute("auth", "set", "--account", id, "--username", "user-"+id, "--password", "pw-"+id)
	require.NoError(e.t, err)

	e.driver.Site(e.profileDir(id)).Configure(func(s *fake.Site) {
		s.Username = "user-" + id
		s.Password = "pw-" + id
	})
}

type instantClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *instantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func TestAccountAddListRemove(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.execute("account", "add", "main", "--name", "Main")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved account main (profile "+env.profileDir("main")+")")

	_, _, err = env.execute("account", "add", "alt")
	require.NoError(t, err)

	stdout, _, err = env.execute("account", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "main\tMain (main)\tx")
	assert.Contains(t, stdout, "alt\t")

	_, _, err = env.execute("group", "set", "launch", "--accounts", "main,alt")
	require.NoError(t, err)

	stdout, _, err = env.execute("account", "remove", "main")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed account main")

	stdout, _, err = env.execute("group", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "launch")
	assert.NotContains(t, stdout, "main")
}

func TestAccountRemoveUnknown(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.execute("account", "remove", "ghost")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAuthSetRequiresAccountFlag(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.execute("auth", "set", "--username", "u", "--password", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"account\" not set")
}

func TestAuthSetRejectsBothPasswordSources(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.execute("auth", "set", "--account", "main", "--username", "u", "--password", "p", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestAuthSetStoresSecrets(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.execute("account", "add", "main")
	require.NoError(t, err)

	stdout, _, err := env.execute("auth", "set", "--account", "main", "--username", "someone", "--password", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stored credentials for account main")

	password, err := env.secrets.Get(context.Background(), "sa/accounts/main/password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)

	stdout, _, err = env.execute("status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "credentials: stored")
}

func TestGroupSetRejectsUnknownMember(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.execute("account", "add", "main")
	require.NoError(t, err)

	_, _, err = env.execute("group", "set", "launch", "--accounts", "main,ghost")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestStatusWithoutAccounts(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.execute("status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No accounts configured.")
}

func TestStatusJSONOutput(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.execute("account", "add", "main", "--name", "Main")
	require.NoError(t, err)

	stdout, _, err := env.execute("status", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"ID\": \"main\"")
}

func TestLoginReportsPhasePerAccount(t *testing.T) {
	env := newCLIEnv(t)
	env.addAccount("main", "Main")

	stdout, _, err := env.execute("login")
	require.NoError(t, err)
	assert.Contains(t, stdout, "main\tlogged_in")
	assert.Equal(t, 1, env.driver.Site(env.profileDir("main")).LoginSubmits())

	stdout, _, err = env.execute("status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Main (main)")
	assert.Contains(t, stdout, "session: logged_in")
}

func TestPostBroadcastsToEveryAccount(t *testing.T) {
	env := newCLIEnv(t)
	env.addAccount("main", "Main")
	env.addAccount("alt", "Alt")

	stdout, _, err := env.execute("post", "--text", "hello world")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2/2 accounts succeeded")
	assert.Contains(t, stdout, "https://x.com/tester/status/")

	assert.Equal(t, []string{"hello world"}, env.driver.Site(env.profileDir("main")).Posts())
	assert.Equal(t, []string{"hello world"}, env.driver.Site(env.profileDir("alt")).Posts())
}

func TestPostTargetsGroupAndPrintsJSON(t *testing.T) {
	env := newCLIEnv(t)
	env.addAccount("main", "Main")
	env.addAccount("alt", "Alt")
	_, _, err := env.execute("group", "set", "launch", "--accounts", "alt")
	require.NoError(t, err)

	stdout, _, err := env.execute("post", "--text", "group only", "--group", "launch", "--json")
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(stdout)))

	var report domain.PostReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.True(t, report.Success)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.AccountID("alt"), report.Results[0].AccountID)
	assert.Empty(t, env.driver.Site(env.profileDir("main")).Posts())
}

func TestPostUsesGeneratedContent(t *testing.T) {
	env := newCLIEnv(t)
	env.addAccount("main", "Main")
	generator := mocks.NewMockContentGenerator(t)
	generator.EXPECT().Generate(mock.Anything, "go").Return("generated take on go", nil).Once()
	env.generator = generator

	_, _, err := env.execute("post", "--generate", "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"generated take on go"}, env.driver.Site(env.profileDir("main")).Posts())
}

func TestPostRejectsInvalidContentBeforeLaunching(t *testing.T) {
	env := newCLIEnv(t)
	env.addAccount("main", "Main")

	_, _, err := env.execute("post", "--text", "   ")
	require.ErrorIs(t, err, domain.ErrInputValidation)
	assert.Zero(t, env.driver.Launches(env.profileDir("main")))
}

func TestPostRequiresContentFlag(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.execute("post")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of the flags in the group [text generate] is required")
}

func TestPostFailsWhenEveryAccountFails(t *testing.T) {
	env := newCLIEnv(t)
	env.addAccount("main", "Main")
	env.driver.Site(env.profileDir("main")).Configure(func(s *fake.Site) { s.RateLimitPosts = true })

	stdout, _, err := env.execute("post", "--text", "hello world")
	require.ErrorIs(t, err, errBroadcastFailed)
	assert.Contains(t, stdout, "0/1 accounts succeeded")
	assert.Contains(t, stdout, "failure(rate_limited)")
}

func TestEngageLikesUpToCap(t *testing.T) {
	env := newCLIEnv(t)
	env.addAccount("main", "Main")
	env.driver.Site(env.profileDir("main")).Configure(func(s *fake.Site) {
		s.Results = []fake.Result{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	})

	stdout, _, err := env.execute("engage", "--term", "golang", "--cap", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "liked 2, skipped 0, failed 0")
	assert.Equal(t, []string{"1", "2"}, env.driver.Site(env.profileDir("main")).Likes())
}

func TestEngageRequiresTerm(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.execute("engage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"term\" not set")
}

func TestVersionSkipsConfigLoading(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("SA_BROADCAST_ENGAGE_PARALLELISM", "-1")

	stdout, _, err := env.execute("version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestInvalidConfigFailsInitialization(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("SA_BROADCAST_ENGAGE_PARALLELISM", "-1")

	_, _, err := env.execute("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize")
}

func TestRemovedCommandsAreUnknown(t *testing.T) {
	for _, name := range []string{"usage", "pool", "limits"} {
		t.Run(name, func(t *testing.T) {
			env := newCLIEnv(t)

			_, _, err := env.execute(name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unknown command")
		})
	}
}
