package client

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// fakeBackend implements Backend through overridable function fields.
// Unset operations succeed with zero values.
type fakeBackend struct {
	signUpFn             func(ctx context.Context, email, password string) error
	signInFn             func(ctx context.Context, email, password string) (*Session, error)
	signOutFn            func(ctx context.Context, refreshToken string) error
	refreshFn            func(ctx context.Context, refreshToken string) (*TokenPair, error)
	verifyEmailFn        func(ctx context.Context, token string) error
	resendVerificationFn func(ctx context.Context, email string) error
	meFn                 func(ctx context.Context) (*AccountSummary, error)
	getProfileFn         func(ctx context.Context) (*Profile, error)
	ensureProfileFn      func(ctx context.Context) (*Profile, error)
	completeProfileFn    func(ctx context.Context, details ProfileDetails) (*Profile, error)
	skipProfileFn        func(ctx context.Context) (*Profile, error)
	fetchFeedFn          func(ctx context.Context, limit int, before *uuid.UUID) (*FeedPage, error)
	fetchPostFn          func(ctx context.Context, postID uuid.UUID) (*Post, error)
	createPostFn         func(ctx context.Context, content string) (*Post, error)
	editPostFn           func(ctx context.Context, postID uuid.UUID, content string) (*Post, error)
	deletePostFn         func(ctx context.Context, postID uuid.UUID) error
	likeFn               func(ctx context.Context, postID uuid.UUID) (*Post, error)
	unlikeFn             func(ctx context.Context, postID uuid.UUID) (*Post, error)
	listCommentsFn       func(ctx context.Context, postID uuid.UUID) ([]Comment, error)
	addCommentFn         func(ctx context.Context, postID uuid.UUID, text string) (*Comment, error)
	streamFn             func(ctx context.Context) (<-chan ChangeEvent, error)
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string) error {
	if f.signUpFn != nil {
		return f.signUpFn(ctx, email, password)
	}
	return nil
}

func (f *fakeBackend) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return &Session{AccountID: uuid.New(), Email: email, EmailVerified: true}, nil
}

func (f *fakeBackend) SignOut(ctx context.Context, refreshToken string) error {
	if f.signOutFn != nil {
		return f.signOutFn(ctx, refreshToken)
	}
	return nil
}

func (f *fakeBackend) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if f.refreshFn != nil {
		return f.refreshFn(ctx, refreshToken)
	}
	return &TokenPair{AccessToken: "fresh", RefreshToken: refreshToken}, nil
}

func (f *fakeBackend) VerifyEmail(ctx context.Context, token string) error {
	if f.verifyEmailFn != nil {
		return f.verifyEmailFn(ctx, token)
	}
	return nil
}

func (f *fakeBackend) ResendVerification(ctx context.Context, email string) error {
	if f.resendVerificationFn != nil {
		return f.resendVerificationFn(ctx, email)
	}
	return nil
}

func (f *fakeBackend) Me(ctx context.Context) (*AccountSummary, error) {
	if f.meFn != nil {
		return f.meFn(ctx)
	}
	return &AccountSummary{ID: uuid.New(), EmailVerified: true}, nil
}

func (f *fakeBackend) GetProfile(ctx context.Context) (*Profile, error) {
	if f.getProfileFn != nil {
		return f.getProfileFn(ctx)
	}
	return &Profile{ID: uuid.New(), AccountID: uuid.New()}, nil
}

func (f *fakeBackend) EnsureProfile(ctx context.Context) (*Profile, error) {
	if f.ensureProfileFn != nil {
		return f.ensureProfileFn(ctx)
	}
	return &Profile{ID: uuid.New(), AccountID: uuid.New()}, nil
}

func (f *fakeBackend) CompleteProfile(ctx context.Context, details ProfileDetails) (*Profile, error) {
	if f.completeProfileFn != nil {
		return f.completeProfileFn(ctx, details)
	}
	return &Profile{Completed: true}, nil
}

func (f *fakeBackend) SkipProfile(ctx context.Context) (*Profile, error) {
	if f.skipProfileFn != nil {
		return f.skipProfileFn(ctx)
	}
	return &Profile{Completed: true, Skipped: true}, nil
}

func (f *fakeBackend) RequestAvatarUpload(ctx context.Context, filename, contentType string) (*AvatarUploadTicket, error) {
	return &AvatarUploadTicket{UploadURL: "https://example.com/upload", StorageKey: "k"}, nil
}

func (f *fakeBackend) ConfirmAvatar(ctx context.Context, storageKey string) (*Profile, error) {
	return &Profile{}, nil
}

func (f *fakeBackend) FetchFeed(ctx context.Context, limit int, before *uuid.UUID) (*FeedPage, error) {
	if f.fetchFeedFn != nil {
		return f.fetchFeedFn(ctx, limit, before)
	}
	return &FeedPage{}, nil
}

func (f *fakeBackend) FetchPost(ctx context.Context, postID uuid.UUID) (*Post, error) {
	if f.fetchPostFn != nil {
		return f.fetchPostFn(ctx, postID)
	}
	return &Post{ID: postID}, nil
}

func (f *fakeBackend) CreatePost(ctx context.Context, content string) (*Post, error) {
	if f.createPostFn != nil {
		return f.createPostFn(ctx, content)
	}
	return &Post{ID: uuid.New(), Content: content, CreatedAt: time.Now()}, nil
}

func (f *fakeBackend) EditPost(ctx context.Context, postID uuid.UUID, content string) (*Post, error) {
	if f.editPostFn != nil {
		return f.editPostFn(ctx, postID, content)
	}
	return &Post{ID: postID, Content: content, UpdatedAt: time.Now()}, nil
}

func (f *fakeBackend) DeletePost(ctx context.Context, postID uuid.UUID) error {
	if f.deletePostFn != nil {
		return f.deletePostFn(ctx, postID)
	}
	return nil
}

func (f *fakeBackend) Like(ctx context.Context, postID uuid.UUID) (*Post, error) {
	if f.likeFn != nil {
		return f.likeFn(ctx, postID)
	}
	return &Post{ID: postID, Liked: true, LikeCount: 1}, nil
}

func (f *fakeBackend) Unlike(ctx context.Context, postID uuid.UUID) (*Post, error) {
	if f.unlikeFn != nil {
		return f.unlikeFn(ctx, postID)
	}
	return &Post{ID: postID, Liked: false, LikeCount: 0}, nil
}

func (f *fakeBackend) ListComments(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
	if f.listCommentsFn != nil {
		return f.listCommentsFn(ctx, postID)
	}
	return nil, nil
}

func (f *fakeBackend) AddComment(ctx context.Context, postID uuid.UUID, text string) (*Comment, error) {
	if f.addCommentFn != nil {
		return f.addCommentFn(ctx, postID, text)
	}
	return &Comment{ID: uuid.New(), PostID: postID, Content: text, CreatedAt: time.Now()}, nil
}

func (f *fakeBackend) StreamPostChanges(ctx context.Context) (<-chan ChangeEvent, error) {
	if f.streamFn != nil {
		return f.streamFn(ctx)
	}
	ch := make(chan ChangeEvent)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

var _ Backend = (*fakeBackend)(nil)
