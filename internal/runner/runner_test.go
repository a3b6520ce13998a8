package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tape/internal/compiler"
	"github.com/roach88/tape/internal/engine"
	"github.com/roach88/tape/internal/ir"
	"github.com/roach88/tape/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(t *testing.T, src string, opts ...Option) (*Runner, *engine.Engine) {
	t.Helper()
	p, err := compiler.CompileSource(src)
	require.NoError(t, err)
	e := engine.New(p)
	base := []Option{
		WithLogger(quietLogger()),
		WithIDGenerator(testutil.NewFixedIDGenerator("run-1")),
	}
	return New(e, append(base, opts...)...), e
}

func TestRun_Halts(t *testing.T) {
	var out bytes.Buffer
	rn, _ := newRunner(t, "++++++++[>++++++++<-]>+.", WithOutput(&out))

	res, err := rn.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.ID)
	assert.Equal(t, ir.RunHalted, res.Status)
	assert.Equal(t, "A", out.String())
	assert.Equal(t, []byte("A"), res.Output)
	assert.Positive(t, res.Steps)
	assert.False(t, res.Truncated)
}

func TestRun_LiteralInput(t *testing.T) {
	var out bytes.Buffer
	p, err := compiler.CompileSource(",[.,]")
	require.NoError(t, err)
	e := engine.New(p)
	e.PushInputBytes([]byte("abc\x00"))
	rn := New(e, WithOutput(&out), WithLogger(quietLogger()))

	res, err := rn.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.RunHalted, res.Status)
	assert.Equal(t, "abc", out.String())
	assert.Equal(t, int64(4), res.InputBytes)
	assert.NotEmpty(t, res.ID, "default generator assigns an id")
}

func TestRun_BlockedWithoutSource(t *testing.T) {
	var out bytes.Buffer
	rn, e := newRunner(t, "+.,", WithOutput(&out))

	res, err := rn.Run(context.Background())
	require.ErrorIs(t, err, ErrInputExhausted)
	assert.Equal(t, ir.RunBlocked, res.Status)
	assert.Equal(t, []byte{1}, out.Bytes(), "output before the block is flushed")
	assert.Equal(t, 2, e.PC())
}

func TestRun_LiveInput(t *testing.T) {
	var out bytes.Buffer
	rn, _ := newRunner(t, ",[.,]", WithOutput(&out), WithInput(strings.NewReader("hey\x00")))

	res, err := rn.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.RunHalted, res.Status)
	assert.Equal(t, "hey", out.String())
	assert.Equal(t, int64(4), res.InputBytes)
}

func TestRun_LiveInputEOF(t *testing.T) {
	rn, _ := newRunner(t, ",,,", WithInput(strings.NewReader("a")))

	res, err := rn.Run(context.Background())
	require.ErrorIs(t, err, ErrInputExhausted)
	assert.Equal(t, ir.RunBlocked, res.Status)
	assert.Equal(t, int64(1), res.InputBytes)
}

func TestRun_LiveInputArrivesLater(t *testing.T) {
	pr, pw := io.Pipe()
	var out bytes.Buffer
	rn, _ := newRunner(t, ",.", WithOutput(&out), WithInput(pr))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = pw.Write([]byte("z"))
		_ = pw.Close()
	}()

	res, err := rn.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.RunHalted, res.Status)
	assert.Equal(t, "z", out.String())
}

func TestRun_LiveInputError(t *testing.T) {
	pr, pw := io.Pipe()
	_ = pw.CloseWithError(errors.New("keyboard unplugged"))
	rn, _ := newRunner(t, ",", WithInput(pr))

	res, err := rn.Run(context.Background())
	require.ErrorIs(t, err, ErrInputExhausted)
	assert.Equal(t, ir.RunBlocked, res.Status)
}

func TestRun_CanceledWhileBlocked(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	rn, _ := newRunner(t, ",", WithInput(pr))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := rn.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, ir.RunCanceled, res.Status)
}

func TestRun_CanceledWhileLooping(t *testing.T) {
	rn, _ := newRunner(t, "+[]")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := rn.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ir.RunCanceled, res.Status)
	assert.Positive(t, res.Steps)
}

func TestRun_MaxSteps(t *testing.T) {
	rn, _ := newRunner(t, "+[]", WithMaxSteps(100))

	res, err := rn.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, ir.RunFailed, res.Status)
	assert.Equal(t, int64(100), res.Steps)

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "run-1", se.RunID)
	assert.Equal(t, int64(100), se.Limit)
}

func TestRun_MaxStepsExactHalt(t *testing.T) {
	// Three instructions and a quota of three: halting on the last allowed
	// step is not a quota failure.
	rn, _ := newRunner(t, "+>+", WithMaxSteps(3))
	res, err := rn.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.RunHalted, res.Status)
}

func TestRun_OutOfBounds(t *testing.T) {
	var out bytes.Buffer
	rn, _ := newRunner(t, "+.<", WithOutput(&out))

	res, err := rn.Run(context.Background())
	require.Error(t, err)
	assert.True(t, engine.IsOutOfBounds(err))
	assert.Equal(t, ir.RunFailed, res.Status)
	assert.Equal(t, []byte{1}, out.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_OutputWriteError(t *testing.T) {
	rn, _ := newRunner(t, "+.", WithOutput(failingWriter{}))

	res, err := rn.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, ir.RunFailed, res.Status)
}

func TestRun_CaptureTruncates(t *testing.T) {
	// "+[.]" prints forever at two steps per byte.
	var out bytes.Buffer
	rn, _ := newRunner(t, "+[.]", WithOutput(&out), WithMaxSteps(2*(maxCapture+100)))

	res, err := rn.Run(context.Background())
	require.True(t, IsQuotaError(err))
	assert.Len(t, res.Output, maxCapture)
	assert.True(t, res.Truncated)
	assert.Greater(t, out.Len(), maxCapture, "the writer still gets everything")
}

func TestEncodeInput(t *testing.T) {
	b, err := EncodeInput("héllo", EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), b)

	b, err = EncodeInput("héllo", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), b)

	b, err = EncodeInput("héllo", EncodingLatin1)
	require.NoError(t, err)
	assert.Equal(t, []byte{'h', 0xE9, 'l', 'l', 'o'}, b)

	// Decomposed e + combining acute normalizes to a single Latin-1 byte.
	b, err = EncodeInput("é", "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xE9}, b)

	_, err = EncodeInput("€", EncodingLatin1)
	assert.Error(t, err)

	_, err = EncodeInput("x", "ebcdic")
	assert.ErrorContains(t, err, "unknown input encoding")
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}

func TestErrorCode(t *testing.T) {
	_, compileErr := compiler.CompileSource("[")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"compile", compileErr, "E201"},
		{"out of bounds", engine.NewOutOfBoundsError(0, 0, -1), ErrCodeOutOfBounds},
		{"quota", &StepsExceededError{Steps: 5, Limit: 5}, ErrCodeQuota},
		{"exhausted", ErrInputExhausted, ErrCodeInputExhausted},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"wrapped", fmt.Errorf("run: %w", ErrInputExhausted), ErrCodeInputExhausted},
		{"other", errors.New("boom"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestRecord(t *testing.T) {
	rn, e := newRunner(t, "+.<")
	res, runErr := rn.Run(context.Background())
	require.Error(t, runErr)

	rec, err := Record("prog.bf", e.Program(), res, runErr)
	require.NoError(t, err)
	hash, err := ir.ProgramHash(e.Program())
	require.NoError(t, err)

	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, "prog.bf", rec.Source)
	assert.Equal(t, hash, rec.ProgramHash)
	assert.Equal(t, ir.RunFailed, rec.Status)
	assert.Equal(t, []byte{1}, rec.Output)
	assert.Equal(t, ErrCodeOutOfBounds, rec.ErrorCode)
	assert.Equal(t, runErr.Error(), rec.ErrorMessage)
	assert.Equal(t, ir.IRVersion, rec.IRVersion)
}
