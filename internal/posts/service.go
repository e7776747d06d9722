// Package posts is the mutation side of the memory feed. Every operation
// takes the caller's identity explicitly; writes go to Postgres and the
// change is announced so every instance refreshes its snapshot.
package posts

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/db"
	"github.com/romiluz13/Studio-Oscar/internal/feed"
	"github.com/romiluz13/Studio-Oscar/internal/models"
	"github.com/romiluz13/Studio-Oscar/internal/notify"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
	"github.com/romiluz13/Studio-Oscar/internal/stream"
)

const postColumns = `id, user_id, user_name, user_photo_url, text, embed_link, tags, mentions,
	is_blessing, blessing_text, COALESCE(event_id, ''), created_at`

var newCommentID = func() string {
	return ulid.Make().String()
}

type ChangeNotifier interface {
	Notify(ctx context.Context, topic string)
}

type DraftClearer interface {
	Clear(ctx context.Context, userID string) error
}

type MentionNotifier interface {
	NotifyMentions(ctx context.Context, post models.Post) error
}

type Options struct {
	Limit    int
	Attempts int
	Backoff  time.Duration
	Origin   string
	Drafts   DraftClearer
	Mentions MentionNotifier
}

type Service struct {
	db       db.Querier
	cache    *feed.Cache[models.Post]
	changes  ChangeNotifier
	drafts   DraftClearer
	mentions MentionNotifier
	limit    int
	attempts int
	backoff  time.Duration
	origin   string
}

func NewService(q db.Querier, cache *feed.Cache[models.Post], changes ChangeNotifier, opts Options) *Service {
	if cache == nil {
		cache = feed.NewCache[models.Post](0)
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &Service{
		db:       q,
		cache:    cache,
		changes:  changes,
		drafts:   opts.Drafts,
		mentions: opts.Mentions,
		limit:    opts.Limit,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		origin:   opts.Origin,
	}
}

// Current is the live feed as this instance last saw it, optimistic
// patches included.
func (s *Service) Current() []models.Post {
	items := s.cache.CurrentItems()
	if items == nil {
		return []models.Post{}
	}
	return items
}

// Snapshot runs the feed query: the newest posts first, capped at the feed
// limit. It is the source the posts watcher refreshes from.
func (s *Service) Snapshot(ctx context.Context) ([]models.Post, error) {
	return s.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`, s.limit)
}

func (s *Service) ByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	return s.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (s *Service) Get(ctx context.Context, id string) (models.Post, error) {
	list, err := s.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE id = $1
	`, id)
	if err != nil {
		return models.Post{}, err
	}
	if len(list) == 0 {
		return models.Post{}, apperr.ErrNotFound
	}
	return list[0], nil
}

func (s *Service) Share(ctx context.Context, id string) (Share, error) {
	post, ok := s.cached(id)
	if !ok {
		var err error
		if post, err = s.Get(ctx, id); err != nil {
			return Share{}, err
		}
	}
	return ShareLinks(post, s.origin), nil
}

func (s *Service) AddPost(ctx context.Context, ident auth.Identity, in PostInput) (models.Post, error) {
	if !ident.SignedIn() {
		return models.Post{}, apperr.ErrUnauthenticated
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return models.Post{}, apperr.Validation("post text is empty")
	}

	post := s.newPost(ident)
	post.Text = text
	post.EmbedLink = strings.TrimSpace(in.EmbedLink)
	post.Tags = SplitTags(in.Tags)
	post.Mentions = notify.ExtractMentions(text)
	if err := s.insert(ctx, "add post", &post); err != nil {
		return models.Post{}, err
	}
	s.published(ctx, ident, post)
	return post, nil
}

// AddBlessing writes a blessing post, optionally tied to an event. An event
// id that does not exist fails with ErrNotFound.
func (s *Service) AddBlessing(ctx context.Context, ident auth.Identity, in BlessingInput) (models.Post, error) {
	if !ident.SignedIn() {
		return models.Post{}, apperr.ErrUnauthenticated
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return models.Post{}, apperr.Validation("blessing text is empty")
	}

	post := s.newPost(ident)
	post.IsBlessing = true
	post.BlessingText = text
	post.EventID = strings.TrimSpace(in.EventID)
	post.Mentions = notify.ExtractMentions(text)
	if err := s.insert(ctx, "add blessing", &post); err != nil {
		return models.Post{}, err
	}
	s.published(ctx, ident, post)
	return post, nil
}

// EditPost replaces the active text of a post the caller owns.
func (s *Service) EditPost(ctx context.Context, ident auth.Identity, postID, text string) error {
	if !ident.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperr.Validation("post text is empty")
	}
	err := s.run(ctx, "edit post", func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `
			UPDATE posts SET
				text = CASE WHEN is_blessing THEN text ELSE $3 END,
				blessing_text = CASE WHEN is_blessing THEN $3 ELSE blessing_text END
			WHERE id = $1 AND user_id = $2
		`, postID, ident.ID, text)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.postDenied(ctx, postID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) DeletePost(ctx context.Context, ident auth.Identity, postID string) error {
	if !ident.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	err := s.run(ctx, "delete post", func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `
			DELETE FROM posts WHERE id = $1 AND user_id = $2
		`, postID, ident.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.postDenied(ctx, postID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// ToggleLike flips the caller's like based on the like-set this instance
// currently shows and reports whether the post is now liked.
func (s *Service) ToggleLike(ctx context.Context, ident auth.Identity, postID string) (bool, error) {
	if !ident.SignedIn() {
		return false, apperr.ErrUnauthenticated
	}
	post, ok := s.cached(postID)
	if !ok {
		var err error
		if post, err = s.Get(ctx, postID); err != nil {
			return false, err
		}
	}

	liked := !post.LikedBy(ident.ID)
	tag := "like:" + postID + ":" + ident.ID
	s.cache.Apply(tag, setLike(postID, ident.ID, liked), likeReflected(postID, ident.ID, liked))

	err := s.run(ctx, "toggle like", func(ctx context.Context) error {
		var err error
		if liked {
			_, err = s.db.Exec(ctx, `
				INSERT INTO post_likes (post_id, user_id) VALUES ($1,$2)
				ON CONFLICT DO NOTHING
			`, postID, ident.ID)
		} else {
			_, err = s.db.Exec(ctx, `
				DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2
			`, postID, ident.ID)
		}
		return err
	})
	if err != nil {
		s.cache.Discard(tag)
		return false, err
	}
	s.changed(ctx)
	return liked, nil
}

func (s *Service) AddComment(ctx context.Context, ident auth.Identity, postID, text string) (models.Comment, error) {
	if !ident.SignedIn() {
		return models.Comment{}, apperr.ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, apperr.Validation("comment text is empty")
	}

	comment := models.Comment{
		ID:        newCommentID(),
		PostID:    postID,
		UserID:    ident.ID,
		UserName:  ident.Name(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	tag := "comment:" + comment.ID
	s.cache.Apply(tag, appendComment(comment), commentReflected(postID, comment.ID))

	err := s.run(ctx, "add comment", func(ctx context.Context) error {
		row := s.db.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO post_comments (id, post_id, user_id, user_name, text)
				VALUES ($1,$2,$3,$4,$5)
				ON CONFLICT (id) DO NOTHING
				RETURNING created_at
			)
			SELECT created_at FROM inserted
			UNION ALL
			SELECT created_at FROM post_comments WHERE id = $1
			LIMIT 1
		`, comment.ID, comment.PostID, comment.UserID, comment.UserName, comment.Text)
		return row.Scan(&comment.CreatedAt)
	})
	if err != nil {
		s.cache.Discard(tag)
		return models.Comment{}, err
	}
	s.changed(ctx)
	return comment, nil
}

// EditComment rewrites one comment in place. Only its author may edit it.
func (s *Service) EditComment(ctx context.Context, ident auth.Identity, postID, commentID, text string) error {
	if !ident.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperr.Validation("comment text is empty")
	}
	err := s.run(ctx, "edit comment", func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `
			UPDATE post_comments SET text = $4, updated_at = now()
			WHERE id = $1 AND post_id = $2 AND user_id = $3
		`, commentID, postID, ident.ID, text)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.commentDenied(ctx, postID, commentID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// DeleteComment removes one comment. Its author and the post's owner may
// delete it.
func (s *Service) DeleteComment(ctx context.Context, ident auth.Identity, postID, commentID string) error {
	if !ident.SignedIn() {
		return apperr.ErrUnauthenticated
	}
	err := s.run(ctx, "delete comment", func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `
			DELETE FROM post_comments c USING posts p
			WHERE c.id = $1 AND c.post_id = $2 AND p.id = c.post_id
			  AND (c.user_id = $3 OR p.user_id = $3)
		`, commentID, postID, ident.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.commentDenied(ctx, postID, commentID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) newPost(ident auth.Identity) models.Post {
	return models.Post{
		ID:           uuid.NewString(),
		UserID:       ident.ID,
		UserName:     ident.Name(),
		UserPhotoURL: ident.AvatarURL,
		Likes:        []string{},
		Comments:     []models.Comment{},
		Tags:         []string{},
	}
}

// insert writes the post under its pre-assigned id. A retried attempt whose
// predecessor already committed reads back the stored timestamp instead of
// failing on the primary key.
func (s *Service) insert(ctx context.Context, op string, post *models.Post) error {
	return s.run(ctx, op, func(ctx context.Context) error {
		row := s.db.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO posts (id, user_id, user_name, user_photo_url, text, embed_link, tags, mentions, is_blessing, blessing_text, event_id)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
				ON CONFLICT (id) DO NOTHING
				RETURNING created_at
			)
			SELECT created_at FROM inserted
			UNION ALL
			SELECT created_at FROM posts WHERE id = $1
			LIMIT 1
		`, post.ID, post.UserID, post.UserName, post.UserPhotoURL, post.Text, post.EmbedLink,
			post.Tags, post.Mentions, post.IsBlessing, post.BlessingText, nullable(post.EventID))
		return row.Scan(&post.CreatedAt)
	})
}

// published runs the follow-ups of a successful post write. Their failures
// are logged and never undo the post.
func (s *Service) published(ctx context.Context, ident auth.Identity, post models.Post) {
	if s.drafts != nil {
		if err := s.drafts.Clear(ctx, ident.ID); err != nil {
			glog.Warningf("clear draft for %s: %v", ident.ID, err)
		}
	}
	if s.mentions != nil {
		if err := s.mentions.NotifyMentions(ctx, post); err != nil {
			glog.Warningf("mention notifications for post %s: %v", post.ID, err)
		}
	}
	s.changed(ctx)
}

func (s *Service) changed(ctx context.Context) {
	if s.changes != nil {
		s.changes.Notify(ctx, stream.TopicPosts)
	}
}

// run applies the retry policy and logs the final failure.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := db.Retry(ctx, s.attempts, s.backoff, fn); err != nil {
		glog.Errorf("%s: %v", op, err)
		return err
	}
	return nil
}

func (s *Service) cached(id string) (models.Post, bool) {
	return findPost(s.cache.CurrentItems(), id)
}

// postDenied explains a guarded write that matched no row.
func (s *Service) postDenied(ctx context.Context, postID string) error {
	var owner string
	if err := s.db.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, postID).Scan(&owner); err != nil {
		return apperr.Classify(err)
	}
	return apperr.ErrPermissionDenied
}

func (s *Service) commentDenied(ctx context.Context, postID, commentID string) error {
	var author string
	err := s.db.QueryRow(ctx, `
		SELECT user_id FROM post_comments WHERE id = $1 AND post_id = $2
	`, commentID, postID).Scan(&author)
	if err != nil {
		return apperr.Classify(err)
	}
	return apperr.ErrPermissionDenied
}

func (s *Service) queryPosts(ctx context.Context, sql string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	defer rows.Close()

	posts := []models.Post{}
	var ids []string
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserPhotoURL, &p.Text, &p.EmbedLink, &p.Tags, &p.Mentions,
			&p.IsBlessing, &p.BlessingText, &p.EventID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Likes = []string{}
		p.Comments = []models.Comment{}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		ids = append(ids, p.ID)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Classify(err)
	}
	rows.Close()

	likes, err := s.loadLikes(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := s.loadComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if l, ok := likes[posts[i].ID]; ok {
			posts[i].Likes = l
		}
		if c, ok := comments[posts[i].ID]; ok {
			posts[i].Comments = c
		}
	}
	return posts, nil
}

func (s *Service) loadLikes(ctx context.Context, postIDs []string) (map[string][]string, error) {
	if len(postIDs) == 0 {
		return map[string][]string{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT post_id, user_id
		FROM post_likes WHERE post_id = ANY($1)
		ORDER BY created_at
	`, postIDs)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	defer rows.Close()
	likes := map[string][]string{}
	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			return nil, err
		}
		likes[postID] = append(likes[postID], userID)
	}
	return likes, rows.Err()
}

func (s *Service) loadComments(ctx context.Context, postIDs []string) (map[string][]models.Comment, error) {
	if len(postIDs) == 0 {
		return map[string][]models.Comment{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, user_id, user_name, text, created_at
		FROM post_comments WHERE post_id = ANY($1)
		ORDER BY created_at, id
	`, postIDs)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	defer rows.Close()
	comments := map[string][]models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.UserName, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments[c.PostID] = append(comments[c.PostID], c)
	}
	return comments, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
