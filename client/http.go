package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource supplies the current access token for outgoing requests.
// The session manager implements it; an empty string means anonymous.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a TokenSource with a fixed token, for scripts and tests.
type StaticToken string

func (t StaticToken) AccessToken() string { return string(t) }

// HTTPBackend implements Backend against the ScholarConnect REST API.
type HTTPBackend struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// HTTPBackendOption is a functional option for configuring HTTPBackend.
type HTTPBackendOption func(*HTTPBackend)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPBackendOption {
	return func(b *HTTPBackend) {
		b.http = c
	}
}

// WithTokenSource sets the access token supplier.
func WithTokenSource(ts TokenSource) HTTPBackendOption {
	return func(b *HTTPBackend) {
		b.tokens = ts
	}
}

// WithBackendLogger sets the logger.
func WithBackendLogger(logger *zap.Logger) HTTPBackendOption {
	return func(b *HTTPBackend) {
		b.logger = logger
	}
}

// NewHTTPBackend creates a backend client for the given API base URL,
// e.g. "https://api.scholarconnect.app". The /api/v1 prefix is appended
// here.
func NewHTTPBackend(baseURL string, opts ...HTTPBackendOption) *HTTPBackend {
	b := &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.tokens != nil {
		if token := b.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %s %s returned undecodable body", ErrMalformedResponse, method, path)
	}

	if !env.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		apiErr.wrapped = sentinelForCode(apiErr.Code, resp.StatusCode)
		b.logger.Debug("api error",
			zap.String("path", path),
			zap.String("code", apiErr.Code),
			zap.Int("status", resp.StatusCode))
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %s %s data did not match the expected shape", ErrMalformedResponse, method, path)
		}
	}
	return nil
}

// Wire shapes mirroring the server DTOs.

type wireTokens struct {
	AccessToken          string    `json:"access_token"`
	RefreshToken         string    `json:"refresh_token"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at"`
}

type wireAccount struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
}

type wireLogin struct {
	wireTokens
	Account wireAccount `json:"account"`
}

type wireAuthor struct {
	AccountID   uuid.UUID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
}

type wirePost struct {
	ID           uuid.UUID  `json:"id"`
	Author       wireAuthor `json:"author"`
	Content      string     `json:"content"`
	LikeCount    int        `json:"likes_count"`
	CommentCount int        `json:"comments_count"`
	LikedByMe    bool       `json:"liked_by_me"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (w *wirePost) toPost() (*Post, error) {
	if w.ID == uuid.Nil || w.Author.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: post missing identity fields", ErrMalformedResponse)
	}
	return &Post{
		ID:           w.ID,
		AuthorID:     w.Author.AccountID,
		AuthorName:   w.Author.DisplayName,
		AuthorAvatar: w.Author.AvatarURL,
		Content:      w.Content,
		LikeCount:    w.LikeCount,
		CommentCount: w.CommentCount,
		Liked:        w.LikedByMe,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}, nil
}

type wireComment struct {
	ID        uuid.UUID  `json:"id"`
	PostID    uuid.UUID  `json:"post_id"`
	Author    wireAuthor `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

func (w *wireComment) toComment() (*Comment, error) {
	if w.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: comment missing identity fields", ErrMalformedResponse)
	}
	return &Comment{
		ID:         w.ID,
		PostID:     w.PostID,
		AuthorID:   w.Author.AccountID,
		AuthorName: w.Author.DisplayName,
		Content:    w.Content,
		CreatedAt:  w.CreatedAt,
	}, nil
}

type wireProfile struct {
	ID             uuid.UUID `json:"id"`
	AccountID      uuid.UUID `json:"account_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Age            *int      `json:"age"`
	School         string    `json:"school"`
	GraduationYear *int      `json:"graduation_year"`
	AvatarURL      string    `json:"avatar_url"`
	Completed      bool      `json:"profile_completed"`
	Skipped        bool      `json:"profile_skipped"`
}

func (w *wireProfile) toProfile() (*Profile, error) {
	if w.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: profile missing identity fields", ErrMalformedResponse)
	}
	return &Profile{
		ID:             w.ID,
		AccountID:      w.AccountID,
		Email:          w.Email,
		FirstName:      w.FirstName,
		LastName:       w.LastName,
		Age:            w.Age,
		School:         w.School,
		GraduationYear: w.GraduationYear,
		AvatarURL:      w.AvatarURL,
		Completed:      w.Completed,
		Skipped:        w.Skipped,
	}, nil
}

// SignUp registers a new account. No session is granted; the user must
// confirm their email first.
func (b *HTTPBackend) SignUp(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return b.do(ctx, http.MethodPost, "/auth/signup", body, nil)
}

// SignIn authenticates and returns the established session.
func (b *HTTPBackend) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var w wireLogin
	if err := b.do(ctx, http.MethodPost, "/auth/login", body, &w); err != nil {
		return nil, err
	}
	if w.AccessToken == "" || w.Account.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: login response missing tokens", ErrMalformedResponse)
	}
	return &Session{
		AccountID:     w.Account.ID,
		Email:         w.Account.Email,
		EmailVerified: w.Account.EmailVerified,
		Tokens: TokenPair{
			AccessToken:  w.AccessToken,
			RefreshToken: w.RefreshToken,
			ExpiresAt:    w.AccessTokenExpiresAt,
		},
	}, nil
}

// SignOut revokes the session server-side.
func (b *HTTPBackend) SignOut(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return b.do(ctx, http.MethodPost, "/auth/logout", body, nil)
}

// Refresh exchanges a refresh token for a new token pair.
func (b *HTTPBackend) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var w wireTokens
	if err := b.do(ctx, http.MethodPost, "/auth/refresh", body, &w); err != nil {
		return nil, err
	}
	if w.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response missing tokens", ErrMalformedResponse)
	}
	return &TokenPair{
		AccessToken:  w.AccessToken,
		RefreshToken: w.RefreshToken,
		ExpiresAt:    w.AccessTokenExpiresAt,
	}, nil
}

// VerifyEmail redeems an emailed verification token.
func (b *HTTPBackend) VerifyEmail(ctx context.Context, token string) error {
	body := map[string]string{"token": token}
	return b.do(ctx, http.MethodPost, "/auth/verify-email", body, nil)
}

// ResendVerification requests a fresh verification email.
func (b *HTTPBackend) ResendVerification(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return b.do(ctx, http.MethodPost, "/auth/resend-verification", body, nil)
}

// Me returns the authenticated account.
func (b *HTTPBackend) Me(ctx context.Context) (*AccountSummary, error) {
	var w struct {
		Account wireAccount `json:"account"`
	}
	if err := b.do(ctx, http.MethodGet, "/auth/me", nil, &w); err != nil {
		return nil, err
	}
	if w.Account.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: me response missing account", ErrMalformedResponse)
	}
	return &AccountSummary{
		ID:            w.Account.ID,
		Email:         w.Account.Email,
		EmailVerified: w.Account.EmailVerified,
	}, nil
}

// GetProfile fetches (and server-side ensures) the caller's profile.
func (b *HTTPBackend) GetProfile(ctx context.Context) (*Profile, error) {
	var w wireProfile
	if err := b.do(ctx, http.MethodGet, "/profile", nil, &w); err != nil {
		return nil, err
	}
	return w.toProfile()
}

// EnsureProfile creates the minimal profile row if absent. Idempotent;
// a concurrent create is treated as success by the server.
func (b *HTTPBackend) EnsureProfile(ctx context.Context) (*Profile, error) {
	var w wireProfile
	if err := b.do(ctx, http.MethodPost, "/profile", nil, &w); err != nil {
		return nil, err
	}
	return w.toProfile()
}

// CompleteProfile submits the profile setup form.
func (b *HTTPBackend) CompleteProfile(ctx context.Context, details ProfileDetails) (*Profile, error) {
	var w wireProfile
	if err := b.do(ctx, http.MethodPut, "/profile", details, &w); err != nil {
		return nil, err
	}
	return w.toProfile()
}

// SkipProfile marks setup as skipped.
func (b *HTTPBackend) SkipProfile(ctx context.Context) (*Profile, error) {
	var w wireProfile
	if err := b.do(ctx, http.MethodPost, "/profile/skip", nil, &w); err != nil {
		return nil, err
	}
	return w.toProfile()
}

// RequestAvatarUpload obtains a presigned upload slot.
func (b *HTTPBackend) RequestAvatarUpload(ctx context.Context, filename, contentType string) (*AvatarUploadTicket, error) {
	body := map[string]string{"file_name": filename, "content_type": contentType}
	var w struct {
		ObjectKey string    `json:"object_key"`
		UploadURL string    `json:"upload_url"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := b.do(ctx, http.MethodPost, "/profile/avatar/upload-url", body, &w); err != nil {
		return nil, err
	}
	if w.UploadURL == "" {
		return nil, fmt.Errorf("%w: upload ticket missing URL", ErrMalformedResponse)
	}
	return &AvatarUploadTicket{
		UploadURL:  w.UploadURL,
		StorageKey: w.ObjectKey,
		ExpiresAt:  w.ExpiresAt,
	}, nil
}

// ConfirmAvatar attaches an uploaded object to the profile.
func (b *HTTPBackend) ConfirmAvatar(ctx context.Context, storageKey string) (*Profile, error) {
	body := map[string]string{"object_key": storageKey}
	var w wireProfile
	if err := b.do(ctx, http.MethodPost, "/profile/avatar/confirm", body, &w); err != nil {
		return nil, err
	}
	return w.toProfile()
}

// FetchFeed loads one page of the public feed.
func (b *HTTPBackend) FetchFeed(ctx context.Context, limit int, before *uuid.UUID) (*FeedPage, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if before != nil {
		params.Set("before", before.String())
	}
	path := "/posts"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var w struct {
		Posts []wirePost `json:"posts"`
	}
	if err := b.do(ctx, http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}

	page := &FeedPage{Posts: make([]Post, 0, len(w.Posts))}
	for i := range w.Posts {
		p, err := w.Posts[i].toPost()
		if err != nil {
			return nil, err
		}
		page.Posts = append(page.Posts, *p)
	}
	page.HasMore = limit > 0 && len(page.Posts) == limit
	return page, nil
}

// FetchPost loads a single post with joined author fields.
func (b *HTTPBackend) FetchPost(ctx context.Context, postID uuid.UUID) (*Post, error) {
	var w wirePost
	if err := b.do(ctx, http.MethodGet, "/posts/"+postID.String(), nil, &w); err != nil {
		return nil, err
	}
	return w.toPost()
}

// CreatePost publishes a new post and returns the authoritative row.
func (b *HTTPBackend) CreatePost(ctx context.Context, content string) (*Post, error) {
	body := map[string]string{"content": content}
	var w wirePost
	if err := b.do(ctx, http.MethodPost, "/posts", body, &w); err != nil {
		return nil, err
	}
	return w.toPost()
}

// EditPost updates a post's content (author only).
func (b *HTTPBackend) EditPost(ctx context.Context, postID uuid.UUID, content string) (*Post, error) {
	body := map[string]string{"content": content}
	var w wirePost
	if err := b.do(ctx, http.MethodPut, "/posts/"+postID.String(), body, &w); err != nil {
		return nil, err
	}
	return w.toPost()
}

// DeletePost removes a post (author only).
func (b *HTTPBackend) DeletePost(ctx context.Context, postID uuid.UUID) error {
	return b.do(ctx, http.MethodDelete, "/posts/"+postID.String(), nil, nil)
}

// Like adds the caller's like; idempotent server-side.
func (b *HTTPBackend) Like(ctx context.Context, postID uuid.UUID) (*Post, error) {
	var w wirePost
	if err := b.do(ctx, http.MethodPost, "/posts/"+postID.String()+"/like", nil, &w); err != nil {
		return nil, err
	}
	return w.toPost()
}

// Unlike removes the caller's like; idempotent server-side.
func (b *HTTPBackend) Unlike(ctx context.Context, postID uuid.UUID) (*Post, error) {
	var w wirePost
	if err := b.do(ctx, http.MethodDelete, "/posts/"+postID.String()+"/like", nil, &w); err != nil {
		return nil, err
	}
	return w.toPost()
}

// ListComments loads a post's comments, oldest first.
func (b *HTTPBackend) ListComments(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
	var w []wireComment
	if err := b.do(ctx, http.MethodGet, "/posts/"+postID.String()+"/comments", nil, &w); err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(w))
	for i := range w {
		c, err := w[i].toComment()
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, nil
}

// AddComment appends a comment to a post.
func (b *HTTPBackend) AddComment(ctx context.Context, postID uuid.UUID, text string) (*Comment, error) {
	body := map[string]string{"content": text}
	var w wireComment
	if err := b.do(ctx, http.MethodPost, "/posts/"+postID.String()+"/comments", body, &w); err != nil {
		return nil, err
	}
	return w.toComment()
}

var _ Backend = (*HTTPBackend)(nil)
