package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/echome-x/internal/client"
	"github.com/tbourn/echome-x/internal/client/quiz"
)

type fakeChatter struct {
	replies []string
	err     error
	got     []string
}

func (f *fakeChatter) Chat(_ context.Context, twinID, msg string) (*client.Reply, error) {
	f.got = append(f.got, twinID+":"+msg)
	if f.err != nil {
		return nil, f.err
	}
	r := &client.Reply{Message: f.replies[0]}
	f.replies = f.replies[1:]
	return r, nil
}

func TestWalk_NumbersBackAndSkip(t *testing.T) {
	input := strings.Join([]string{
		"Ada",
		"9", // not an option
		"1",
		"b", // back to gender
		"2",
		"1", "1", "1", "1", "1", "1", "1", "1", "1", "1",
		"", // skip permissions
	}, "\n") + "\n"

	w := quiz.New()
	var out bytes.Buffer
	require.NoError(t, walk(w, strings.NewReader(input), &out, newStyles(false)))
	assert.True(t, w.Done())

	got, _ := w.Answered(1)
	assert.Equal(t, "male", got)
	assert.Contains(t, out.String(), "That is not one of the options.")
	assert.Contains(t, out.String(), "Question 11 of 11")

	req, err := w.Request()
	require.NoError(t, err)
	assert.Equal(t, "Ada", req.Name)
}

func TestWalk_AbortOnEOF(t *testing.T) {
	err := walk(quiz.New(), strings.NewReader("Ada\n"), &bytes.Buffer{}, newStyles(false))
	assert.EqualError(t, err, "quiz aborted")
}

func TestResolveChoice(t *testing.T) {
	steps := quiz.DefaultSteps()
	assert.Equal(t, "Ada 2", resolveChoice(steps[0], "Ada 2"))
	assert.Equal(t, "female", resolveChoice(steps[1], "1"))
	assert.Equal(t, "instagram,tiktok", resolveChoice(steps[12], "1, 4"))
	assert.Equal(t, "linkedin", resolveChoice(steps[12], "linkedin"))
	assert.Equal(t, "7", resolveChoice(steps[1], "7"))
}

func TestRepl_RepliesAndGenericError(t *testing.T) {
	fc := &fakeChatter{replies: []string{"Hey you!"}}
	var out bytes.Buffer
	in := strings.NewReader("hello\n\n/quit\nnever sent\n")
	require.NoError(t, repl(context.Background(), fc, in, &out, newStyles(false), "t-1", "Ada"))

	assert.Equal(t, []string{"t-1:hello"}, fc.got)
	assert.Contains(t, out.String(), "is typing...")
	assert.Contains(t, out.String(), "Ada Hey you!")

	fc = &fakeChatter{err: errors.New("dial tcp: connection refused")}
	out.Reset()
	exchange(context.Background(), fc, &out, newStyles(false), "", "Twin", "hi")
	assert.Contains(t, out.String(), chatErrorText)
	assert.NotContains(t, out.String(), "connection refused")
}

func TestSpark(t *testing.T) {
	assert.Equal(t, "no data", spark(nil))
	assert.Equal(t, "▁▁", spark([]int{3, 3}))
	assert.Equal(t, "▁█", spark([]int{1, 9}))
}
