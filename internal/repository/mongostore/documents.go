// Package mongostore implements the repository interfaces on MongoDB. Likes
// and comments are embedded arrays inside the post document.
package mongostore

import (
	"time"

	"huddle/internal/models"
	"huddle/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	PostsCollection        = "posts"
	FlaggedPostsCollection = "flagged_posts"
	UsersCollection        = "users"
)

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"userId"`
	Privacy   string             `bson:"privacy"`
	Content   string             `bson:"content"`
	Image     string             `bson:"image,omitempty"`
	Likes     []likeDocument     `bson:"likes"`
	Comments  []commentDocument  `bson:"comments"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type likeDocument struct {
	UserID primitive.ObjectID `bson:"userId"`
}

type commentDocument struct {
	UserID    primitive.ObjectID  `bson:"userId"`
	RepliedTo *primitive.ObjectID `bson:"repliedTo,omitempty"`
	Content   string              `bson:"content"`
	CreatedAt time.Time           `bson:"createdAt"`
}

type flaggedPostDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	PostID      primitive.ObjectID `bson:"postId"`
	FlaggedBy   primitive.ObjectID `bson:"flaggedBy"`
	Subject     string             `bson:"subject"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	Password     string             `bson:"password"`
	FullName     string             `bson:"fullName"`
	ProfileImage string             `bson:"profileImage"`
	CoverImage   string             `bson:"coverImage"`
	Bio          string             `bson:"bio"`
	IsAdmin      bool               `bson:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// objectID parses a hex id. Anything malformed cannot match a stored
// document, so it is reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

// objectIDs drops malformed ids instead of failing the batch.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

// hexOrNil keeps an empty reference empty rather than encoding the nil id.
func hexOrNil(oid primitive.ObjectID) string {
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

func newPostDocument(p *models.Post) (*postDocument, error) {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	id, err := objectID(p.ID)
	if err != nil {
		return nil, err
	}
	author, err := objectID(p.UserID)
	if err != nil {
		return nil, err
	}
	doc := &postDocument{
		ID:        id,
		UserID:    author,
		Privacy:   string(p.Privacy),
		Content:   p.Content,
		Image:     p.Image,
		Likes:     []likeDocument{},
		Comments:  []commentDocument{},
		CreatedAt: p.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
		p.CreatedAt = doc.CreatedAt
	}
	for _, l := range p.Likes {
		uid, err := objectID(l.UserID)
		if err != nil {
			return nil, err
		}
		doc.Likes = append(doc.Likes, likeDocument{UserID: uid})
	}
	for i := range p.Comments {
		c, err := newCommentDocument(&p.Comments[i])
		if err != nil {
			return nil, err
		}
		doc.Comments = append(doc.Comments, *c)
	}
	return doc, nil
}

func newCommentDocument(c *models.Comment) (*commentDocument, error) {
	uid, err := objectID(c.UserID)
	if err != nil {
		return nil, err
	}
	doc := &commentDocument{UserID: uid, Content: c.Content, CreatedAt: c.CreatedAt}
	if c.RepliedTo != nil && *c.RepliedTo != "" {
		replied, err := objectID(*c.RepliedTo)
		if err != nil {
			return nil, err
		}
		doc.RepliedTo = &replied
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
		c.CreatedAt = doc.CreatedAt
	}
	return doc, nil
}

func (d *postDocument) model() *models.Post {
	p := &models.Post{
		ID:        d.ID.Hex(),
		UserID:    hexOrNil(d.UserID),
		Privacy:   models.Privacy(d.Privacy),
		Content:   d.Content,
		Image:     d.Image,
		Likes:     make([]models.Like, 0, len(d.Likes)),
		Comments:  make([]models.Comment, 0, len(d.Comments)),
		CreatedAt: d.CreatedAt,
	}
	for _, l := range d.Likes {
		p.Likes = append(p.Likes, models.Like{PostID: p.ID, UserID: hexOrNil(l.UserID)})
	}
	for i, c := range d.Comments {
		mc := models.Comment{
			ID:        uint(i + 1),
			PostID:    p.ID,
			UserID:    hexOrNil(c.UserID),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		}
		if c.RepliedTo != nil {
			replied := c.RepliedTo.Hex()
			mc.RepliedTo = &replied
		}
		p.Comments = append(p.Comments, mc)
	}
	return p
}

func (d *flaggedPostDocument) model() *models.FlaggedPost {
	return &models.FlaggedPost{
		ID:          d.ID.Hex(),
		PostID:      hexOrNil(d.PostID),
		FlaggedBy:   hexOrNil(d.FlaggedBy),
		Subject:     d.Subject,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}

func (d *userDocument) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		Password:     d.Password,
		FullName:     d.FullName,
		ProfileImage: d.ProfileImage,
		CoverImage:   d.CoverImage,
		Bio:          d.Bio,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
