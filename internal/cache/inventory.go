package cache

import (
	"fmt"
	"time"
)

// Invalidation tags. A tag groups every cache entry that a single
// editorial change can stale, so the revalidation webhook can expire
// them together.
const (
	TagContent     = "content"
	TagProjects    = "projects"
	TagBlog        = "blog"
	TagSubscribers = "subscribers"
)

// KnownTags lists the tags accepted by the revalidation endpoint.
func KnownTags() []string {
	return []string{TagContent, TagProjects, TagBlog, TagSubscribers}
}

const (
	// ContentTTL is the default staleness bound for page content
	// queries; CACHE_TTL_SECONDS overrides it per deployment.
	ContentTTL = time.Hour
	// SubscriberCountTTL is shorter so the home page counter tracks
	// signups without a webhook.
	SubscriberCountTTL = 5 * time.Minute
)

// Keys for parameterless queries.
const (
	KeyPersonalInfo     = "content:personalInfo"
	KeyAbout            = "content:about"
	KeyResume           = "content:resume"
	KeyCertifications   = "content:certifications"
	KeyFeaturedProjects = "projects:featured"
	KeyFeaturedPosts    = "blog:featured"
	KeyBlogTags         = "blog:tags"
	KeySubscriberCount  = "subscribers:count"
)

// ProjectsKey returns the cache key for a project list, optionally
// filtered by type.
func ProjectsKey(projectType string) string {
	if projectType == "" {
		return "projects:all"
	}
	return "projects:type:" + projectType
}

// ProjectKey returns the cache key for a project detail lookup.
func ProjectKey(slug string) string {
	return "projects:slug:" + slug
}

// BlogPostsKey returns the cache key for a post list. limit 0 means all.
func BlogPostsKey(limit int) string {
	return fmt.Sprintf("blog:posts:%d", limit)
}

// BlogPostKey returns the cache key for a post detail lookup.
func BlogPostKey(slug string) string {
	return "blog:slug:" + slug
}
