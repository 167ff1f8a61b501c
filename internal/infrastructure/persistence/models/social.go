package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/scholarconnect/backend/internal/domain/social"
)

// PostModel is the persistence model for the Post aggregate. Like and
// comment counts are denormalized columns maintained transactionally by
// the repository together with the like/comment rows.
type PostModel struct {
	AggregateModel
	AuthorID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	Content      string                `gorm:"type:varchar(500);not null"`
	Visibility   social.PostVisibility `gorm:"type:varchar(20);not null;default:'public';index"`
	LikeCount    int                   `gorm:"not null;default:0"`
	CommentCount int                   `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PostModel) TableName() string {
	return "posts"
}

// ToDomain converts the persistence model to a domain Post aggregate.
func (m *PostModel) ToDomain() *social.Post {
	return &social.Post{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		AuthorID:          m.AuthorID,
		Content:           m.Content,
		Visibility:        m.Visibility,
		LikeCount:         m.LikeCount,
		CommentCount:      m.CommentCount,
	}
}

// FromDomain populates the persistence model from a domain Post aggregate.
func (m *PostModel) FromDomain(p *social.Post) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.AuthorID = p.AuthorID
	m.Content = p.Content
	m.Visibility = p.Visibility
	m.LikeCount = p.LikeCount
	m.CommentCount = p.CommentCount
}

// PostModelFromDomain creates a new persistence model from a domain Post.
func PostModelFromDomain(p *social.Post) *PostModel {
	m := &PostModel{}
	m.FromDomain(p)
	return m
}

// LikeModel is the persistence model for a like row. The composite
// primary key makes duplicate likes a constraint violation, which the
// repository turns into an idempotent no-op.
type LikeModel struct {
	PostID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LikeModel) TableName() string {
	return "likes"
}

// ToDomain converts the persistence model to a domain Like.
func (m *LikeModel) ToDomain() social.Like {
	return social.Like{
		PostID:    m.PostID,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

// CommentModel is the persistence model for the Comment entity.
type CommentModel struct {
	BaseModel
	PostID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Content  string    `gorm:"type:varchar(300);not null"`
}

// TableName returns the table name for GORM
func (CommentModel) TableName() string {
	return "comments"
}

// ToDomain converts the persistence model to a domain Comment entity.
func (m *CommentModel) ToDomain() *social.Comment {
	return &social.Comment{
		BaseEntity: m.BaseModel.ToDomain(),
		PostID:     m.PostID,
		AuthorID:   m.AuthorID,
		Content:    m.Content,
	}
}

// FromDomain populates the persistence model from a domain Comment entity.
func (m *CommentModel) FromDomain(c *social.Comment) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.PostID = c.PostID
	m.AuthorID = c.AuthorID
	m.Content = c.Content
}

// CommentModelFromDomain creates a new persistence model from a domain Comment.
func CommentModelFromDomain(c *social.Comment) *CommentModel {
	m := &CommentModel{}
	m.FromDomain(c)
	return m
}
