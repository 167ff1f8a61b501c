package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func TestHTTPBackend_SignInDecodesSession(t *testing.T) {
	accountID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "grace@school.edu", body["email"])

		writeEnvelope(w, http.StatusOK, map[string]any{
			"access_token":            "access-jwt",
			"refresh_token":           "refresh-jwt",
			"access_token_expires_at": time.Now().Add(15 * time.Minute).Format(time.RFC3339),
			"account": map[string]any{
				"id":             accountID,
				"email":          "grace@school.edu",
				"email_verified": true,
			},
		})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	session, err := b.SignIn(context.Background(), "grace@school.edu", "secret123")
	require.NoError(t, err)

	assert.Equal(t, accountID, session.AccountID)
	assert.True(t, session.EmailVerified)
	assert.Equal(t, "access-jwt", session.Tokens.AccessToken)
	assert.Equal(t, "refresh-jwt", session.Tokens.RefreshToken)
}

func TestHTTPBackend_ErrorCodeSentinelMapping(t *testing.T) {
	tests := []struct {
		code   string
		status int
		want   error
	}{
		{"ERR_ALREADY_EXISTS", 409, ErrEmailTaken},
		{"ERR_INVALID_CREDENTIALS", 401, ErrInvalidCredentials},
		{"ERR_EMAIL_UNCONFIRMED", 403, ErrEmailUnconfirmed},
		{"ERR_NOT_FOUND", 404, ErrNotFound},
		{"ERR_FORBIDDEN", 403, ErrForbidden},
		{"ERR_TOKEN_EXPIRED", 401, ErrUnauthorized},
		{"ERR_SOMETHING_NEW", 401, ErrUnauthorized}, // status fallback
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, tt.status, tt.code, "nope")
			}))
			defer srv.Close()

			b := NewHTTPBackend(srv.URL)
			err := b.SignUp(context.Background(), "grace@school.edu", "secret123")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.HTTPStatus)
		})
	}
}

func TestHTTPBackend_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html>proxy error</html>")
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	_, err := b.GetProfile(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestHTTPBackend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	b := NewHTTPBackend(srv.URL)
	err := b.SignUp(context.Background(), "grace@school.edu", "secret123")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestHTTPBackend_BearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, map[string]any{"posts": []any{}})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, WithTokenSource(StaticToken("my-token")))
	_, err := b.FetchFeed(context.Background(), 20, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer my-token", gotAuth)
}

func TestHTTPBackend_FetchFeedPagination(t *testing.T) {
	makeWirePost := func() map[string]any {
		return map[string]any{
			"id": uuid.New(),
			"author": map[string]any{
				"account_id":   uuid.New(),
				"display_name": "Grace H.",
			},
			"content":        "hello",
			"likes_count":    4,
			"comments_count": 1,
			"liked_by_me":    true,
			"created_at":     time.Now().Format(time.RFC3339),
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK, map[string]any{
			"posts": []any{makeWirePost(), makeWirePost()},
		})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	page, err := b.FetchFeed(context.Background(), 2, nil)
	require.NoError(t, err)

	require.Len(t, page.Posts, 2)
	assert.True(t, page.HasMore, "a full page implies more may follow")
	assert.Equal(t, 4, page.Posts[0].LikeCount)
	assert.True(t, page.Posts[0].Liked)
	assert.Equal(t, "Grace H.", page.Posts[0].AuthorName)
}

func TestHTTPBackend_FetchPostMissingIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An envelope that decodes but lacks the post identity
		writeEnvelope(w, http.StatusOK, map[string]any{"content": "orphan"})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	_, err := b.FetchPost(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestHTTPBackend_ListCommentsBareArray(t *testing.T) {
	postID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/posts/"+postID.String()+"/comments", r.URL.Path)
		writeEnvelope(w, http.StatusOK, []any{
			map[string]any{
				"id":      uuid.New(),
				"post_id": postID,
				"author": map[string]any{
					"account_id":   uuid.New(),
					"display_name": "Ada",
				},
				"content":    "first!",
				"created_at": time.Now().Format(time.RFC3339),
			},
		})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	comments, err := b.ListComments(context.Background(), postID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "first!", comments[0].Content)
	assert.Equal(t, "Ada", comments[0].AuthorName)
}

func TestHTTPBackend_DeletePostNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	require.NoError(t, b.DeletePost(context.Background(), uuid.New()))
}

func TestHTTPBackend_StreamPostChanges(t *testing.T) {
	postID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/posts/stream", r.URL.Path)
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		// heartbeat comment, then a real event, then an undecodable one
		fmt.Fprint(w, ":\n\n")
		fmt.Fprintf(w, "event: post_change\ndata: {\"type\":\"insert\",\"post_id\":%q,\"timestamp\":123}\n\n", postID)
		fmt.Fprint(w, "event: post_change\ndata: {not json}\n\n")
		fmt.Fprintf(w, "event: post_change\ndata: {\"type\":\"delete\",\"post_id\":%q,\"timestamp\":456}\n\n", postID)
		flusher.Flush()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b := NewHTTPBackend(srv.URL)
	events, err := b.StreamPostChanges(ctx)
	require.NoError(t, err)

	var got []ChangeEvent
	for event := range events {
		got = append(got, event)
	}

	// The garbage frame is dropped, not fatal
	require.Len(t, got, 2)
	assert.Equal(t, ChangeInsert, got[0].Type)
	assert.Equal(t, postID, got[0].PostID)
	assert.Equal(t, int64(123), got[0].Timestamp)
	assert.Equal(t, ChangeDelete, got[1].Type)
}

func TestHTTPBackend_StreamRejectedWhenUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "token missing")
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	_, err := b.StreamPostChanges(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPBackend_StreamWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL)
	_, err := b.StreamPostChanges(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)
}
