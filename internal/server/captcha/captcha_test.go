package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T, h http.HandlerFunc) *RecaptchaVerifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	v := NewRecaptchaVerifier("shh", time.Second).WithEndpoint(srv.URL)
	v.backoff = func() retry.Backoff { return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond)) }
	return v
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestRecaptchaVerifier_SendsSecretAndToken(t *testing.T) {
	var form map[string]string
	v := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"secret":   r.PostForm.Get("secret"),
			"response": r.PostForm.Get("response"),
			"remoteip": r.PostForm.Get("remoteip"),
		}
		reply(`{"success":true,"score":0.9}`)(w, r)
	})

	require.NoError(t, v.Verify(context.Background(), "tok", "203.0.113.7"))
	assert.Equal(t, map[string]string{"secret": "shh", "response": "tok", "remoteip": "203.0.113.7"}, form)
}

func TestRecaptchaVerifier_Decisions(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"human", `{"success":true,"score":0.7}`, true},
		{"threshold", `{"success":true,"score":0.5}`, true},
		{"low score", `{"success":true,"score":0.3}`, false},
		{"unsuccessful", `{"success":false,"error-codes":["invalid-input-response"]}`, false},
		{"v2 key without score", `{"success":true}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVerifier(t, reply(tt.body))
			err := v.Verify(context.Background(), "tok", "")
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrCaptchaFailed)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRecaptchaVerifier_EmptyTokenSkipsBackend(t *testing.T) {
	var calls atomic.Int32
	v := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		reply(`{"success":true}`)(w, r)
	})

	require.ErrorIs(t, v.Verify(context.Background(), "  ", ""), common.ErrCaptchaFailed)
	assert.Zero(t, calls.Load())
}

func TestRecaptchaVerifier_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	v := newVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		reply(`{"success":true,"score":0.9}`)(w, r)
	})

	require.NoError(t, v.Verify(context.Background(), "tok", ""))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRecaptchaVerifier_BackendFailure(t *testing.T) {
	var calls atomic.Int32
	v := newVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := v.Verify(context.Background(), "tok", "")
	require.ErrorIs(t, err, common.ErrInternal)
	assert.NotErrorIs(t, err, common.ErrCaptchaFailed)
	assert.Equal(t, int32(3), calls.Load())

	bad := newVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	require.ErrorIs(t, bad.Verify(context.Background(), "tok", ""), common.ErrInternal)

	garbled := newVerifier(t, reply(`not json`))
	require.ErrorIs(t, garbled.Verify(context.Background(), "tok", ""), common.ErrInternal)
}

func TestNopVerifier(t *testing.T) {
	assert.NoError(t, NopVerifier{}.Verify(context.Background(), "", ""))
}
