package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"folio/internal/models"
	"folio/internal/observability"
	"folio/internal/portabletext"
	"folio/internal/repository"
	"folio/internal/sanity"

	"golang.org/x/sync/errgroup"
)

// Cover images resolve at social-card dimensions.
const (
	coverImageWidth  = 1200
	coverImageHeight = 630
)

// ContentService aggregates catalog reads into the views the site
// renders. Page views degrade per section: a failed section logs and
// renders empty rather than failing the whole page.
type ContentService struct {
	content     repository.ContentRepository
	subscribers repository.SubscriberRepository
	images      *sanity.ImageBuilder
}

// HomeView is the landing page payload: everything the single-page
// front page renders in one response.
type HomeView struct {
	PersonalInfo     *models.PersonalInfo   `json:"personalInfo"`
	About            *models.About          `json:"about"`
	Resume           *models.Resume         `json:"resume"`
	Certifications   []models.Certification `json:"certifications"`
	FeaturedProjects []models.Project       `json:"featuredProjects"`
	FeaturedPosts    []models.BlogPost      `json:"featuredPosts"`
	SubscriberCount  int                    `json:"subscriberCount"`
}

// PortfolioView is the portfolio page payload.
type PortfolioView struct {
	About          *models.About          `json:"about"`
	Resume         *models.Resume         `json:"resume"`
	Certifications []models.Certification `json:"certifications"`
	Projects       []models.Project       `json:"projects"`
	Labs           []models.Project       `json:"labs"`
}

// BlogListView is the blog index payload.
type BlogListView struct {
	Posts []models.BlogPost `json:"posts"`
	Tags  []string          `json:"tags"`
}

// BlogDetailView is a single rendered post.
type BlogDetailView struct {
	Post          *models.BlogPost `json:"post"`
	ContentHTML   string           `json:"contentHtml"`
	CoverImageURL string           `json:"coverImageUrl,omitempty"`
}

func NewContentService(content repository.ContentRepository, subscribers repository.SubscriberRepository, images *sanity.ImageBuilder) *ContentService {
	return &ContentService{content: content, subscribers: subscribers, images: images}
}

// GetHome assembles the landing page. Sections load concurrently;
// identical underlying queries still collapse through the request
// scope.
func (s *ContentService) GetHome(ctx context.Context) (*HomeView, error) {
	view := &HomeView{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := s.content.GetPersonalInfo(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "personalInfo", err)
			return nil
		}
		view.PersonalInfo = info
		return nil
	})
	g.Go(func() error {
		projects, err := s.content.GetFeaturedProjects(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "featuredProjects", err)
			return nil
		}
		view.FeaturedProjects = projects
		return nil
	})
	g.Go(func() error {
		posts, err := s.content.GetFeaturedBlogPosts(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "featuredPosts", err)
			return nil
		}
		view.FeaturedPosts = posts
		return nil
	})
	g.Go(func() error {
		about, err := s.content.GetAbout(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "about", err)
			return nil
		}
		view.About = about
		return nil
	})
	g.Go(func() error {
		resume, err := s.content.GetResume(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "resume", err)
			return nil
		}
		view.Resume = resume
		return nil
	})
	g.Go(func() error {
		certs, err := s.content.GetCertifications(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "certifications", err)
			return nil
		}
		view.Certifications = certs
		return nil
	})
	g.Go(func() error {
		count, err := s.subscribers.Count(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "subscriberCount", err)
			return nil
		}
		view.SubscriberCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// GetPortfolio assembles the portfolio page.
func (s *ContentService) GetPortfolio(ctx context.Context) (*PortfolioView, error) {
	view := &PortfolioView{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		about, err := s.content.GetAbout(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "about", err)
			return nil
		}
		view.About = about
		return nil
	})
	g.Go(func() error {
		resume, err := s.content.GetResume(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "resume", err)
			return nil
		}
		view.Resume = resume
		return nil
	})
	g.Go(func() error {
		certs, err := s.content.GetCertifications(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "certifications", err)
			return nil
		}
		view.Certifications = certs
		return nil
	})
	g.Go(func() error {
		projects, err := s.content.GetProjects(gctx, models.ProjectTypeProject)
		if err != nil {
			observability.LogSectionDegraded(gctx, "projects", err)
			return nil
		}
		view.Projects = projects
		return nil
	})
	g.Go(func() error {
		labs, err := s.content.GetProjects(gctx, models.ProjectTypeLab)
		if err != nil {
			observability.LogSectionDegraded(gctx, "labs", err)
			return nil
		}
		view.Labs = labs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// GetBlogList assembles the blog index. A limit of 0 returns all
// posts. Unlike page sections, a failed post list is a hard error; tags
// alone make no page.
func (s *ContentService) GetBlogList(ctx context.Context, limit int) (*BlogListView, error) {
	if limit < 0 {
		return nil, models.NewValidationError("limit must not be negative")
	}

	view := &BlogListView{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		posts, err := s.content.GetBlogPosts(gctx, limit)
		if err != nil {
			return err
		}
		view.Posts = posts
		return nil
	})
	g.Go(func() error {
		tags, err := s.content.GetBlogTags(gctx)
		if err != nil {
			observability.LogSectionDegraded(gctx, "blogTags", err)
			return nil
		}
		view.Tags = tags
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// GetBlogPost fetches one post by slug and renders its body to HTML.
func (s *ContentService) GetBlogPost(ctx context.Context, slug string) (*BlogDetailView, error) {
	if slug == "" {
		return nil, models.NewValidationError("slug is required")
	}

	post, err := s.content.GetBlogPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("blog post", slug)
	}

	// Older posts were published without an excerpt; derive one from
	// the body so list cards and meta tags always have text.
	if post.Excerpt == "" {
		post.Excerpt = excerptFrom(post.Content)
	}

	view := &BlogDetailView{
		Post:        post,
		ContentHTML: portabletext.RenderHTML(post.Content),
	}
	if post.CoverImage != nil {
		view.CoverImageURL = s.images.URLFor(post.CoverImage.Asset.Ref, coverImageWidth, coverImageHeight)
	}
	return view, nil
}

const maxExcerptLen = 200

func excerptFrom(content []portabletext.Block) string {
	text := portabletext.PlainText(content)
	if len(text) <= maxExcerptLen {
		return text
	}
	cut := strings.LastIndex(text[:maxExcerptLen], " ")
	if cut <= 0 {
		// No space to break on; back up to a rune boundary so the hard
		// cut never splits a multi-byte character.
		cut = maxExcerptLen
		for !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return text[:cut] + "…"
}

// GetBlogTags returns the distinct tag list across all posts.
func (s *ContentService) GetBlogTags(ctx context.Context) ([]string, error) {
	return s.content.GetBlogTags(ctx)
}

// GetProjects lists projects, optionally filtered by type. An unknown
// type is a validation error rather than an empty result.
func (s *ContentService) GetProjects(ctx context.Context, projectType string) ([]models.Project, error) {
	switch projectType {
	case "", models.ProjectTypeProject, models.ProjectTypeLab:
	default:
		return nil, models.NewValidationError("Invalid project type")
	}
	return s.content.GetProjects(ctx, projectType)
}

// GetProjectBySlug fetches one project by slug.
func (s *ContentService) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	if slug == "" {
		return nil, models.NewValidationError("slug is required")
	}
	project, err := s.content.GetProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, models.NewNotFoundError("project", slug)
	}
	return project, nil
}
