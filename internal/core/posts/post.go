package posts

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"Tutter/internal/core/docstore"
)

const (
	// MaxContentGraphemes bounds post content length
	MaxContentGraphemes = 3000

	// MaxCommentGraphemes bounds comment text length
	MaxCommentGraphemes = 1000
)

// Document field names for the posts collection
const (
	fieldContent   = "content"
	fieldLiked     = "liked"
	fieldLikeCount = "likeCount"
	fieldComments  = "comments"
)

// Post is a single feed entry.
// Liked is a single shared flag on the document, not per viewer.
type Post struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Comments  []string `json:"comments"`
	LikeCount int      `json:"likeCount"`
	Liked     bool     `json:"liked"`
}

// Clone returns a copy that shares no slices with p
func (p Post) Clone() Post {
	out := p
	out.Comments = append(make([]string, 0, len(p.Comments)), p.Comments...)
	return out
}

// Fields returns the document body for the posts collection
func (p Post) Fields() docstore.Fields {
	comments := p.Comments
	if comments == nil {
		comments = []string{}
	}
	return docstore.Fields{
		fieldContent:   p.Content,
		fieldLiked:     p.Liked,
		fieldLikeCount: p.LikeCount,
		fieldComments:  comments,
	}
}

// FromDocument decodes a posts document.
// Missing or malformed fields fall back to their zero values; likeCount is clamped at 0.
func FromDocument(doc docstore.Document) Post {
	p := Post{ID: doc.ID, Comments: []string{}}

	if v, ok := doc.Fields[fieldContent].(string); ok {
		p.Content = v
	}
	if v, ok := doc.Fields[fieldLiked].(bool); ok {
		p.Liked = v
	}
	p.LikeCount = toInt(doc.Fields[fieldLikeCount])
	if p.LikeCount < 0 {
		p.LikeCount = 0
	}

	switch v := doc.Fields[fieldComments].(type) {
	case []any:
		for _, c := range v {
			if s, ok := c.(string); ok {
				p.Comments = append(p.Comments, s)
			}
		}
	case []string:
		p.Comments = append(p.Comments, v...)
	}
	return p
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

// ValidateContent checks post content and returns the trimmed text
func ValidateContent(content string) (string, error) {
	return validateText(fieldContent, content, MaxContentGraphemes)
}

// ValidateComment checks comment text and returns the trimmed text
func ValidateComment(text string) (string, error) {
	return validateText("text", text, MaxCommentGraphemes)
}

func validateText(field, text string, limit int) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", NewValidationError(field, "must not be empty")
	}
	if n := uniseg.GraphemeClusterCount(trimmed); n > limit {
		return "", NewValidationError(field, fmt.Sprintf("too long (%d graphemes, max %d)", n, limit))
	}
	return trimmed, nil
}
