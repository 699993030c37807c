package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"coreforge/internal/domain/entities"

	"github.com/gin-gonic/gin"
)

// bundleSummary is the inventory listing shape
type bundleSummary struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Image           string   `json:"image"`
	Platform        string   `json:"platform"`
	Entrypoint      string   `json:"entrypoint"`
	Args            []string `json:"args,omitempty"`
	UsesCredentials bool     `json:"uses_credentials"`
	DependsOn       []string `json:"depends_on,omitempty"`
}

func summarize(b *entities.ServiceBundle) bundleSummary {
	return bundleSummary{
		Name:            b.Name,
		Description:     b.Description,
		Image:           b.Reference(),
		Platform:        b.Base.Platform,
		Entrypoint:      b.Entrypoint.Script,
		Args:            b.Entrypoint.Args,
		UsesCredentials: b.UsesCredentials(),
		DependsOn:       b.DependsOn,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListBundles(c *gin.Context) {
	bundles, err := s.repo.ListBundles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summaries := make([]bundleSummary, 0, len(bundles))
	for _, b := range bundles {
		summaries = append(summaries, summarize(b))
	}
	c.JSON(http.StatusOK, gin.H{"bundles": summaries})
}

func (s *Server) handleGetBundle(c *gin.Context) {
	bundle, err := s.repo.GetBundle(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summarize(bundle))
}

func (s *Server) handleDockerfile(c *gin.Context) {
	bundle, err := s.repo.GetBundle(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	dockerfile, err := s.renderer.Render(bundle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, dockerfile)
}

func (s *Server) handleLatestReport(c *gin.Context) {
	if s.reportPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report configured"})
		return
	}

	data, err := os.ReadFile(s.reportPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report available"})
		return
	}

	var report json.RawMessage
	if err := json.Unmarshal(data, &report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report is not valid JSON"})
		return
	}
	c.JSON(http.StatusOK, report)
}
