package jobstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"lsfd/config"
	"lsfd/internal/pkg/model"
)

// Client wraps a GORM DB connection holding the submission ledger.
type Client struct {
	DB          *gorm.DB
	ClusterName string
	logger      *slog.Logger
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// New creates a GORM Client configured from config.Jobstore and ensures
// the submission table exists.
func New(cfg config.Jobstore, logger *slog.Logger) (*Client, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("build dsn", "dsn", dsn)

	gcfg := &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Warn),
	}

	db, err := gorm.Open(mysql.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	// Tune the underlying connection pool
	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if d := parseDuration(cfg.ConnMaxLifetime); d > 0 {
			sqlDB.SetConnMaxLifetime(d)
		}
		// Proactive connectivity check with timeout to avoid hanging on unreachable DB
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}
	}

	if err := db.AutoMigrate(&model.Submission{}); err != nil {
		return nil, err
	}

	return &Client{DB: db, ClusterName: cfg.ClusterName, logger: logger}, nil
}

// buildDSN constructs a DSN string without importing the mysql driver package.
// Format: user:pass@tcp(host:port)/dbname?param=value
func buildDSN(cfg config.Jobstore) (string, error) {
	creds := cfg.User
	if cfg.Password != "" {
		creds = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
	}

	addr := fmt.Sprintf("tcp(%s:%d)", cfg.Host, cfg.Port)
	dbname := cfg.Database

	params := make([]string, 0, 8)
	if cfg.Charset != "" {
		params = append(params, fmt.Sprintf("charset=%s", cfg.Charset))
	}
	if cfg.ParseTime {
		params = append(params, "parseTime=true")
	} else {
		params = append(params, "parseTime=false")
	}
	if cfg.Loc != "" {
		params = append(params, fmt.Sprintf("loc=%s", url.QueryEscape(cfg.Loc)))
	}
	if cfg.TLS != "" {
		params = append(params, fmt.Sprintf("tls=%s", cfg.TLS))
	}
	// Conservative timeouts to prevent hangs on connect/read/write
	params = append(params, "timeout=5s")
	params = append(params, "readTimeout=5s")
	params = append(params, "writeTimeout=5s")

	dsn := fmt.Sprintf("%s@%s/%s", creds, addr, dbname)
	if len(params) > 0 {
		dsn = dsn + "?" + strings.Join(params, "&")
	}
	return dsn, nil
}

// parseDuration returns 0 on empty or invalid duration strings.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default jobstore Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default jobstore Client.
func Default() *Client { return defaultClient }

// Record inserts a new submission row.
func (c *Client) Record(ctx context.Context, s *model.Submission) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil jobstore Client")
	}
	return c.DB.WithContext(ctx).Create(s).Error
}

// UpdateState sets the scheduler state of a recorded job.
func (c *Client) UpdateState(ctx context.Context, jobID, state string) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("nil jobstore Client")
	}
	return c.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("job_id = ?", jobID).
		Updates(map[string]any{"state": state, "update_time": time.Now()}).Error
}

// GetSubmissionsPaged queries submission_table with optional filters on
// user and state. Returns the paged rows and the total count before paging.
func (c *Client) GetSubmissionsPaged(ctx context.Context, user, state *string, offset, limit int) (model.Submissions, int64, error) {
	if c == nil || c.DB == nil {
		return nil, 0, fmt.Errorf("nil jobstore Client")
	}
	base := c.DB.WithContext(ctx).Model(&model.Submission{})
	if user != nil && strings.TrimSpace(*user) != "" {
		base = base.Where("`user` = ?", *user)
	}
	if state != nil && strings.TrimSpace(*state) != "" {
		base = base.Where("state = ?", *state)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var res model.Submissions
	q := base.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&res).Error; err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

// GetSubmissionByJobID returns a single recorded submission.
func (c *Client) GetSubmissionByJobID(ctx context.Context, jobID string) (*model.Submission, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil jobstore Client")
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("job id is required")
	}
	var s model.Submission
	if err := c.DB.WithContext(ctx).Where("job_id = ?", jobID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActiveJobIDs returns the job IDs of submissions whose recorded
// state is not yet terminal, for the status sync to refresh.
func (c *Client) GetActiveJobIDs(ctx context.Context) ([]string, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil jobstore Client")
	}
	var ids []string
	if err := c.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("state NOT IN ?", []string{"DONE", "EXIT", "ZOMBI"}).
		Where("job_id <> ''").
		Pluck("job_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserNames returns the distinct submitters recorded in the ledger.
func (c *Client) GetUserNames(ctx context.Context) ([]string, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil jobstore Client")
	}
	var users []string
	if err := c.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("`user` <> ''").
		Distinct().
		Pluck("`user`", &users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
