package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient scripts a sequence of completions.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) Complete(_ context.Context, _, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func TestVisitor_ReturnsMapping(t *testing.T) {
	client := &fakeClient{responses: []string{`{"a": "count"}`}}
	v := NewVisitor(client)
	m, err := v(context.Background(), []string{"a"}, "const a = 1;")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "count"}, m)
	assert.Equal(t, 1, client.calls)
}

func TestVisitor_RetriesTransientFailures(t *testing.T) {
	client := &fakeClient{
		errs:      []error{errors.New("503"), nil},
		responses: []string{"", `{"a": "count"}`},
	}
	v := NewVisitor(client)
	m, err := v(context.Background(), []string{"a"}, "const a = 1;")
	require.NoError(t, err)
	assert.Equal(t, "count", m["a"])
	assert.Equal(t, 2, client.calls)
}

func TestVisitor_GivesUpAfterRetries(t *testing.T) {
	boom := errors.New("hard down")
	client := &fakeClient{errs: []error{boom, boom, boom}}
	v := NewVisitor(client)
	_, err := v(context.Background(), []string{"a"}, "const a = 1;")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, client.calls)
}

func TestIdentityVisitor(t *testing.T) {
	m, err := IdentityVisitor(context.Background(), []string{"a", "b"}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "a", "b": "b"}, m)
}
