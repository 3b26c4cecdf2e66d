package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of c and its children to its default and
// hands them ctx, so one test's state does not leak into the next Execute.
// cobra only fills in a child's context when it has none.
func resetFlags(ctx context.Context, c *cobra.Command) {
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
	c.SetContext(ctx)
	for _, child := range c.Commands() {
		resetFlags(ctx, child)
	}
}

// lockedBuffer is written by a running command while the test reads it
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// execute runs the root command with args and returns what it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out lockedBuffer
	err := executeContext(context.Background(), &out, args...)
	return out.String(), err
}

func executeContext(ctx context.Context, out io.Writer, args ...string) error {
	resetFlags(ctx, rootCmd)
	config = nil

	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// harness points the CLI at a fake backend and a temp data dir
type harness struct {
	backend *testutil.FakeBackend
	dataDir string
}

func newHarness(t *testing.T, users ...testutil.FakeUser) *harness {
	t.Helper()
	return &harness{
		backend: testutil.NewFakeBackend(t, users...),
		dataDir: testutil.CreateTempDir(t),
	}
}

func (h *harness) args(args ...string) []string {
	global := []string{"--api", h.backend.APIURL(), "--realtime", h.backend.WSURL(), "--data-dir", h.dataDir}
	return append(global, args...)
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, h.args(args...)...)
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	if err != nil {
		t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (h *harness) login(t *testing.T, u testutil.FakeUser) {
	t.Helper()
	h.mustRun(t, "login", "--email", u.Email, "--password", u.Password)
}

var (
	ana = testutil.FakeUser{ID: "1", Email: "ana@example.com", Password: "pw-ana", FirstName: "Ana", LastName: "Reyes", UserType: internal.RoleCustomer}
	bob = testutil.FakeUser{ID: "2", Email: "bob@example.com", Password: "pw-bob", FirstName: "Bob", LastName: "Cruz", UserType: internal.RoleBusinessOwner}
)
