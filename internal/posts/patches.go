package posts

import (
	"slices"

	"github.com/romiluz13/Studio-Oscar/internal/feed"
	"github.com/romiluz13/Studio-Oscar/internal/models"
)

func findPost(items []models.Post, id string) (models.Post, bool) {
	for _, p := range items {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func updatePost(id string, fn func(models.Post) models.Post) feed.Patch[models.Post] {
	return func(items []models.Post) []models.Post {
		out := make([]models.Post, len(items))
		for i, p := range items {
			if p.ID == id {
				p = fn(p)
			}
			out[i] = p
		}
		return out
	}
}

func setLike(postID, userID string, liked bool) feed.Patch[models.Post] {
	return updatePost(postID, func(p models.Post) models.Post {
		likes := slices.DeleteFunc(slices.Clone(p.Likes), func(id string) bool { return id == userID })
		if liked {
			likes = append(likes, userID)
		}
		p.Likes = likes
		return p
	})
}

// likeReflected also holds once the post is gone, so the patch cannot
// outlive its target.
func likeReflected(postID, userID string, liked bool) feed.Reflected[models.Post] {
	return func(snapshot []models.Post) bool {
		p, ok := findPost(snapshot, postID)
		return !ok || p.LikedBy(userID) == liked
	}
}

func appendComment(c models.Comment) feed.Patch[models.Post] {
	return updatePost(c.PostID, func(p models.Post) models.Post {
		p.Comments = append(slices.Clone(p.Comments), c)
		return p
	})
}

func commentReflected(postID, commentID string) feed.Reflected[models.Post] {
	return func(snapshot []models.Post) bool {
		p, ok := findPost(snapshot, postID)
		if !ok {
			return true
		}
		_, ok = p.Comment(commentID)
		return ok
	}
}
