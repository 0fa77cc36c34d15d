package videosummarizer

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"video-summarizer/agents/video-summarizer/transcript"
	"video-summarizer/agents/video-summarizer/youtube"
	"video-summarizer/internal/models"
	"video-summarizer/shared/ai"
	"video-summarizer/shared/logger"
	"video-summarizer/shared/metrics"
	"video-summarizer/shared/monitoring"
	"video-summarizer/shared/proxy"
	"video-summarizer/shared/storage"

	"github.com/gin-gonic/gin"
)

type VideoInfoFetcher interface {
	GetVideoInfo(ctx context.Context, videoID string) (*models.VideoInfo, error)
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) ai.Result
}

type ProxyChecker interface {
	Check(ctx context.Context) (*proxy.Diagnosis, error)
}

// Deps are the collaborators a Server routes requests to. Proxy, Health and
// Metrics are optional. A nil Health pings Store on /health.
type Deps struct {
	Videos      VideoInfoFetcher
	Transcripts TranscriptFetcher
	Summarizer  Summarizer
	Store       storage.Store
	Proxy       ProxyChecker
	Health      *monitoring.HealthHandler
	Metrics     *metrics.Metrics
	Logger      logger.Logger
	// StaticDir serves the landing page from disk instead of the embedded copy.
	StaticDir string
}

// Server is the HTTP surface. It holds no per-request state.
type Server struct {
	deps   Deps
	log    logger.Logger
	engine *gin.Engine
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Health == nil {
		deps.Health = monitoring.NewHealthHandler()
		if deps.Store != nil {
			deps.Health.WithDependency("database", deps.Store)
		}
	}

	s := &Server{deps: deps, log: deps.Logger}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		recovery(s.log),
		requestID(),
		requestLogger(s.log),
		s.deps.Metrics.Middleware(),
	)

	r.GET("/", s.index)
	r.POST("/get_video_info", s.getVideoInfo)
	r.POST("/summarize", s.summarize)
	r.POST("/save_summary", s.saveSummary)
	r.GET("/get_summaries", s.getSummaries)
	r.DELETE("/delete_summary/:id", s.deleteSummary)
	r.GET("/init_db", s.initDB)
	r.GET("/test-proxy", s.testProxy)

	s.deps.Health.Register(r)
	r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	return r
}

type urlRequest struct {
	URL string `json:"url"`
}

func (s *Server) getVideoInfo(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	videoID, ok := youtube.ExtractVideoID(req.URL)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid YouTube URL."})
		return
	}

	info, err := s.deps.Videos.GetVideoInfo(c.Request.Context(), videoID)
	s.deps.Metrics.ObserveUpstream(metrics.ServiceYouTube, ignoreNotFound(err))
	switch {
	case errors.Is(err, youtube.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found."})
		return
	case err != nil:
		s.log.Error("YouTube Data API request failed",
			logger.String("video_id", videoID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal API error occurred."})
		return
	}

	c.JSON(http.StatusOK, info)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, youtube.ErrVideoNotFound) {
		return nil
	}
	return err
}

func (s *Server) summarize(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	videoID, ok := youtube.ExtractVideoID(req.URL)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not extract video ID."})
		return
	}

	ctx := c.Request.Context()
	text, err := s.deps.Transcripts.Fetch(ctx, videoID)
	s.deps.Metrics.ObserveUpstream(metrics.ServiceTranscript, err)
	if err != nil {
		kind := transcript.KindOf(err)
		s.log.Error("Transcript fetch failed",
			logger.String("video_id", videoID),
			logger.String("kind", kind.String()),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": kind.Message()})
		return
	}

	result := s.deps.Summarizer.Summarize(ctx, text)
	s.deps.Metrics.ObserveUpstream(metrics.ServiceGemini, result.Err)
	if result.Err != nil {
		s.log.Warn("Summarization failed, returning error text as summary",
			logger.String("video_id", videoID),
			logger.Error(result.Err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"summary": result.Content()})
}

// saveRequest uses pointers so absent keys can be told apart from empty values.
type saveRequest struct {
	URL          *string `json:"url"`
	Title        *string `json:"title"`
	ChannelTitle *string `json:"channel_title"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Summary      *string `json:"summary"`
}

func (r *saveRequest) missing() []string {
	var fields []string
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"url", r.URL},
		{"title", r.Title},
		{"channel_title", r.ChannelTitle},
		{"thumbnail_url", r.ThumbnailURL},
		{"summary", r.Summary},
	} {
		if f.val == nil {
			fields = append(fields, f.name)
		}
	}
	return fields
}

func (s *Server) saveSummary(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	if missing := req.missing(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing data for saving: " + strings.Join(missing, ", ")})
		return
	}

	id, err := s.deps.Store.Insert(c.Request.Context(), models.NewSummary{
		YouTubeURL:   *req.URL,
		Title:        *req.Title,
		ChannelTitle: *req.ChannelTitle,
		ThumbnailURL: *req.ThumbnailURL,
		Summary:      *req.Summary,
	})
	s.deps.Metrics.ObserveUpstream(metrics.ServiceStore, err)
	if err != nil {
		s.log.Error("Failed to save summary", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.log.Info("Summary saved", logger.Int64("id", id), logger.String("title", *req.Title))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Summary saved successfully!"})
}

func (s *Server) getSummaries(c *gin.Context) {
	summaries, err := s.deps.Store.List(c.Request.Context())
	s.deps.Metrics.ObserveUpstream(metrics.ServiceStore, err)
	if err != nil {
		s.log.Error("Failed to list summaries", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if summaries == nil {
		summaries = []models.Summary{}
	}

	c.JSON(http.StatusOK, summaries)
}

func (s *Server) deleteSummary(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid summary id."})
		return
	}

	err = s.deps.Store.Delete(c.Request.Context(), id)
	s.deps.Metrics.ObserveUpstream(metrics.ServiceStore, err)
	if err != nil {
		s.log.Error("Failed to delete summary", logger.Int64("id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Summary deleted."})
}

func (s *Server) initDB(c *gin.Context) {
	err := s.deps.Store.Init(c.Request.Context())
	s.deps.Metrics.ObserveUpstream(metrics.ServiceStore, err)
	if err != nil {
		s.log.Error("Failed to initialize database", logger.Error(err))
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.String(http.StatusOK, "Database initialized.")
}

func (s *Server) testProxy(c *gin.Context) {
	if s.deps.Proxy == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Proxy is not configured.", "status": "failed"})
		return
	}

	diag, err := s.deps.Proxy.Check(c.Request.Context())
	s.deps.Metrics.ObserveUpstream(metrics.ServiceProxy, err)
	switch {
	case errors.Is(err, proxy.ErrNotConfigured):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Proxy is not configured.", "status": "failed"})
		return
	case err != nil:
		s.log.Error("Proxy check failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "failed"})
		return
	}

	c.JSON(http.StatusOK, diag)
}
