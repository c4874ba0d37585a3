package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hirewithprachi/console/internal/models"
	"github.com/hirewithprachi/console/internal/sysinfo"
)

// StatsResponse summarizes the state of the console for the dashboard
type StatsResponse struct {
	Leads struct {
		Total int64 `json:"total"`
		New   int64 `json:"new"`
	} `json:"leads"`
	Posts struct {
		Total     int64 `json:"total"`
		Published int64 `json:"published"`
		Scheduled int64 `json:"scheduled"`
	} `json:"posts"`
	Videos    int64 `json:"videos"`
	Resources struct {
		Total        int64 `json:"total"`
		Downloads    int64 `json:"downloads"`
		StorageBytes int64 `json:"storage_bytes"`
	} `json:"resources"`
	EmailLogs struct {
		Queued int64 `json:"queued"`
		Sent   int64 `json:"sent"`
		Failed int64 `json:"failed"`
	} `json:"email_logs"`
	Users     int64     `json:"users"`
	Admins    int64     `json:"admins"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// @Summary Dashboard stats
// @Tags system
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StatsResponse
// @Router /api/admin/stats [get]
func (s *Server) getStats(c *gin.Context) {
	var stats StatsResponse
	stats.Version = s.version
	stats.Timestamp = time.Now().UTC()

	counts := []struct {
		model interface{}
		query map[string]interface{}
		dest  *int64
	}{
		{&models.Lead{}, nil, &stats.Leads.Total},
		{&models.Lead{}, map[string]interface{}{"status": models.LeadStatusNew}, &stats.Leads.New},
		{&models.Post{}, nil, &stats.Posts.Total},
		{&models.Post{}, map[string]interface{}{"status": models.PostStatusPublished}, &stats.Posts.Published},
		{&models.Post{}, map[string]interface{}{"status": models.PostStatusScheduled}, &stats.Posts.Scheduled},
		{&models.Video{}, nil, &stats.Videos},
		{&models.Resource{}, nil, &stats.Resources.Total},
		{&models.EmailLog{}, map[string]interface{}{"status": models.EmailStatusQueued}, &stats.EmailLogs.Queued},
		{&models.EmailLog{}, map[string]interface{}{"status": models.EmailStatusSent}, &stats.EmailLogs.Sent},
		{&models.EmailLog{}, map[string]interface{}{"status": models.EmailStatusFailed}, &stats.EmailLogs.Failed},
		{&models.User{}, nil, &stats.Users},
		{&models.AdminGrant{}, map[string]interface{}{"is_active": true}, &stats.Admins},
	}

	for _, count := range counts {
		query := s.db.Model(count.model)
		if count.query != nil {
			query = query.Where(count.query)
		}
		if err := query.Count(count.dest).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to compute stats")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
	}

	if err := s.db.Model(&models.Resource{}).
		Select("COALESCE(SUM(download_count), 0)").
		Scan(&stats.Resources.Downloads).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to sum downloads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	stats.Resources.StorageBytes = s.storageUsage()

	c.JSON(http.StatusOK, stats)
}

// getSystem reports host metrics for the filesystem holding uploads
func (s *Server) getSystem(c *gin.Context) {
	metrics, err := sysinfo.GetMetrics(c.Request.Context(), s.config.Storage.Dir)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to collect host metrics")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Host metrics unavailable"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// storageUsage walks the storage directory and sums file sizes. Errors are
// logged but never fail the stats request.
func (s *Server) storageUsage() int64 {
	var total int64
	err := filepath.WalkDir(s.config.Storage.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to measure storage usage")
	}
	return total
}
