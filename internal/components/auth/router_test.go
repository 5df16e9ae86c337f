package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/authform/internal/shared/request"
)

func postForm(t *testing.T, h http.Handler, target string, values url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTrigger(t *testing.T, header string) map[string]any {
	t.Helper()
	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(header), &payload))
	return payload["notify"]
}

var htmxHeaders = map[string]string{"HX-Request": "true"}

func TestSignInRouter_FormPage(t *testing.T) {
	h := newRouter(signInSchema, &mockAuthenticator{}).Routes()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, `id="signin-form"`)
	assert.Contains(t, body, `placeholder="手机号或邮箱"`)
	assert.Contains(t, body, `type="password"`)
	assert.Contains(t, body, "记住我")
	assert.Contains(t, body, `hx-post="/signin/validate"`)
}

func TestSignUpRouter_FormPage(t *testing.T) {
	h := newRouter(signUpSchema, &mockAuthenticator{}).Routes()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="signup-form"`)
	assert.Contains(t, body, `placeholder="您的昵称"`)
	assert.Contains(t, body, "社交帐号直接注册")
	assert.NotContains(t, body, "记住我")
}

func TestSignInRouter_SubmitSuccess(t *testing.T) {
	client := &mockAuthenticator{}
	client.On("SignIn", mock.Anything, Credentials{Email: "a@b.com", Password: "secret1"}).
		Return(&request.Response{StatusCode: 200}, nil).Once()
	h := newRouter(signInSchema, client).Routes()

	w := postForm(t, h, "/", url.Values{"email": {"a@b.com"}, "password": {"secret1"}}, htmxHeaders)

	assert.Equal(t, http.StatusOK, w.Code)
	n := decodeTrigger(t, w.Header().Get("HX-Trigger"))
	assert.Equal(t, "success", n["status"])
	assert.Equal(t, "登录成功~", n["title"])
	assert.Equal(t, "top", n["position"])
	assert.Equal(t, float64(3000), n["duration"])
	client.AssertExpectations(t)
}

func TestSignInRouter_SubmitFailure(t *testing.T) {
	client := &mockAuthenticator{}
	client.On("SignIn", mock.Anything, mock.Anything).Return(nil, &request.StatusError{StatusCode: 401}).Once()
	h := newRouter(signInSchema, client).Routes()

	w := postForm(t, h, "/", url.Values{"email": {"a@b.com"}, "password": {"secret1"}}, htmxHeaders)

	assert.Equal(t, http.StatusOK, w.Code)
	n := decodeTrigger(t, w.Header().Get("HX-Trigger"))
	assert.Equal(t, "error", n["status"])
	assert.Equal(t, "登录失败~", n["title"])
	assert.NotContains(t, w.Body.String(), "401", "remote error detail must not be surfaced")
}

func TestSignInRouter_SubmitInvalid(t *testing.T) {
	client := &mockAuthenticator{}
	h := newRouter(signInSchema, client).Routes()

	w := postForm(t, h, "/", url.Values{"email": {"nope"}, "password": {"123"}}, htmxHeaders)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "#signin-form", w.Header().Get("HX-Retarget"))
	assert.Equal(t, "outerHTML", w.Header().Get("HX-Reswap"))
	assert.Empty(t, w.Header().Get("HX-Trigger"))
	body := w.Body.String()
	assert.Contains(t, body, "请输入正确的邮箱")
	assert.Contains(t, body, "密码至少6位!")
	assert.Contains(t, body, `value="nope"`)
	assert.NotContains(t, body, `value="123"`)
	assert.NotContains(t, body, "<html", "htmx requests get a fragment")
	client.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything)
}

func TestSignUpRouter_SubmitWithoutHTMX(t *testing.T) {
	reg := Registration{Username: "bob", Email: "a@b.com", Password: "secret1"}
	client := &mockAuthenticator{}
	client.On("SignUp", mock.Anything, reg).Return(&request.Response{StatusCode: 201}, nil).Once()
	h := newRouter(signUpSchema, client).Routes()

	w := postForm(t, h, "/", url.Values{"username": {"bob"}, "email": {"a@b.com"}, "password": {"secret1"}}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<html")
	assert.Contains(t, body, "注册成功~")
	assert.Contains(t, body, `data-duration="3000"`)
	client.AssertExpectations(t)
}

func TestSignUpRouter_SubmitInvalidWithoutHTMX(t *testing.T) {
	h := newRouter(signUpSchema, &mockAuthenticator{}).Routes()

	w := postForm(t, h, "/", url.Values{"email": {"a@b.com"}, "password": {"secret1"}}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "<html")
	assert.Contains(t, w.Body.String(), "请输入昵称")
}

func TestSubmit_RemoteCallSurvivesClientDisconnect(t *testing.T) {
	client := &mockAuthenticator{}
	client.On("SignIn", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			assert.NoError(t, ctx.Err())
		}).
		Return(&request.Response{StatusCode: 200}, nil).Once()
	h := newRouter(signInSchema, client).Routes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	values := url.Values{"email": {"a@b.com"}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertExpectations(t)
}

func TestValidateFieldEndpoint(t *testing.T) {
	h := newRouter(signUpSchema, &mockAuthenticator{}).Routes()
	values := url.Values{"username": {""}, "email": {"a@b.com"}, "password": {"12"}}

	w := postForm(t, h, "/validate", values, map[string]string{"HX-Trigger-Name": "username"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="signup-username-error"`)
	assert.Contains(t, w.Body.String(), "请输入昵称")

	w = postForm(t, h, "/validate?field=email", values, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="signup-email-error"`)
	assert.NotContains(t, w.Body.String(), "邮箱")

	w = postForm(t, h, "/validate", values, map[string]string{"HX-Trigger-Name": "password"})
	assert.Contains(t, w.Body.String(), "密码至少6位!")

	w = postForm(t, h, "/validate", values, map[string]string{"HX-Trigger-Name": "remember"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
